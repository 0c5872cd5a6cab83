//go:build ignore

// This program generates sample roster files for prpulse tests and demos.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

var members = [][]string{
	{"username", "email"},
	{"octocat", "octocat@example.com"},
	{"hubot", ""},
	{"monalisa", "mona@example.com"},
	{"defunkt", "chris@example.com"},
	{"mojombo", ""},
}

func main() {
	dir := "testdata"
	if err := generateCSV(filepath.Join(dir, "roster.csv")); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating roster.csv: %v\n", err)
		os.Exit(1)
	}

	if err := generateXlsx(filepath.Join(dir, "roster.xlsx")); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating roster.xlsx: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Test fixtures generated successfully.")
}

func generateCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(members); err != nil {
		return err
	}
	fmt.Printf("Generated %s\n", path)
	return nil
}

func generateXlsx(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, "Team"); err != nil {
		return err
	}
	for r, row := range members {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue("Team", cell, v); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return err
	}
	fmt.Printf("Generated %s\n", path)
	return nil
}
