// Package roster loads the list of users a report covers.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// ErrEmptyRoster is returned when a roster yields no usernames.
var ErrEmptyRoster = errors.New("roster contains no usernames")

// Member is one roster entry.
type Member struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Identity is the key used for the AI-usage lookup: the email when known,
// else the username.
func (m Member) Identity() string {
	if m.Email != "" {
		return m.Email
	}
	return m.Username
}

// Load reads a roster from a .csv, .txt or .xlsx file.
func Load(path string) ([]Member, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("roster not found: %s; check that the path is correct", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadXLSX(path)
	case ".csv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open roster %s: %w", path, err)
		}
		defer f.Close()
		members, err := Parse(f)
		if err != nil {
			return nil, fmt.Errorf("roster %s: %w", path, err)
		}
		return members, nil
	default:
		return nil, fmt.Errorf("unsupported roster type %q (supported: .csv, .txt, .xlsx)", filepath.Ext(path))
	}
}

// Parse reads a CSV roster.
func Parse(r io.Reader) ([]Member, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not parse CSV: %w", err)
	}
	return parseRows(rows)
}

func loadXLSX(path string) ([]Member, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s (is this a valid .xlsx file?): %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("roster %s: %w", path, ErrEmptyRoster)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", sheets[0], err)
	}
	members, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return members, nil
}

// parseRows accepts either a table whose header row names a "username"
// column (and optionally "email"), or a bare list where every non-empty cell
// is a username. Duplicates are dropped case-insensitively, first one wins.
func parseRows(rows [][]string) ([]Member, error) {
	rows = lo.Filter(rows, func(row []string, _ int) bool {
		return lo.SomeBy(row, func(c string) bool { return clean(c) != "" })
	})
	if len(rows) == 0 {
		return nil, ErrEmptyRoster
	}

	var members []Member
	userCol, emailCol := headerColumns(rows[0])
	if userCol >= 0 {
		for _, row := range rows[1:] {
			m := Member{Username: cell(row, userCol)}
			if emailCol >= 0 {
				m.Email = cell(row, emailCol)
			}
			if m.Username != "" {
				members = append(members, m)
			}
		}
	} else {
		for _, row := range rows {
			for _, c := range row {
				if u := clean(c); u != "" {
					members = append(members, Member{Username: u})
				}
			}
		}
	}

	members = lo.UniqBy(members, func(m Member) string { return strings.ToLower(m.Username) })
	if len(members) == 0 {
		return nil, ErrEmptyRoster
	}
	return members, nil
}

func headerColumns(header []string) (userCol, emailCol int) {
	userCol, emailCol = -1, -1
	for i, c := range header {
		switch strings.ToLower(clean(c)) {
		case "username":
			userCol = i
		case "email":
			emailCol = i
		}
	}
	return userCol, emailCol
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return clean(row[i])
}

func clean(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}

// Exclude drops members whose username matches any entry in usernames,
// case-insensitively.
func Exclude(members []Member, usernames []string) []Member {
	if len(usernames) == 0 {
		return members
	}
	skip := lo.SliceToMap(usernames, func(u string) (string, struct{}) {
		return strings.ToLower(strings.TrimSpace(u)), struct{}{}
	})
	return lo.Filter(members, func(m Member, _ int) bool {
		_, excluded := skip[strings.ToLower(m.Username)]
		return !excluded
	})
}
