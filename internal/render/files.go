package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/klytics/prpulse/internal/metrics"
)

// Output file names, fixed so repeated runs overwrite the previous report.
const (
	SummaryFile  = "pr_summary.csv"
	DetailsFile  = "pr_details.csv"
	WorkbookFile = "pr_report.xlsx"
	JSONFile     = "pr_report.json"
)

// Formats accepted by WriteFiles.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// WriteJSON writes the whole report, per-PR details included.
func WriteJSON(w io.Writer, r *metrics.OrgReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Files lists the names a format produces.
func Files(format string) []string {
	switch format {
	case FormatCSV:
		return []string{SummaryFile, DetailsFile}
	case FormatXLSX:
		return []string{WorkbookFile}
	case FormatJSON:
		return []string{JSONFile}
	}
	return nil
}

// WriteFiles removes every report file a previous run may have left in dir,
// then writes the requested formats. A failing format does not stop the
// others; all failures are returned together with the paths that were
// written.
func WriteFiles(dir string, formats []string, r *metrics.OrgReport) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create output directory: %w", err)
	}

	var result *multierror.Error
	for _, name := range []string{SummaryFile, DetailsFile, WorkbookFile, JSONFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result = multierror.Append(result, fmt.Errorf("could not remove stale %s: %w", name, err))
		}
	}

	var written []string
	for _, format := range formats {
		names := Files(format)
		if names == nil {
			result = multierror.Append(result, fmt.Errorf("unknown format %q", format))
			continue
		}
		for _, name := range names {
			path := filepath.Join(dir, name)
			if err := writeFile(path, writerFor(name), r); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			written = append(written, path)
		}
	}
	return written, result.ErrorOrNil()
}

func writerFor(name string) func(io.Writer, *metrics.OrgReport) error {
	switch name {
	case SummaryFile:
		return WriteSummaryCSV
	case DetailsFile:
		return WriteDetailsCSV
	case WorkbookFile:
		return WriteXLSX
	default:
		return WriteJSON
	}
}

func writeFile(path string, write func(io.Writer, *metrics.OrgReport) error, r *metrics.OrgReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := write(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", path, err)
	}
	return nil
}
