package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const timestampLayout = "2006-01-02_15-04-05"

// OutputPath builds the report file path:
// {dir}/{licenseNumber}_{report}_{timestamp}.{ext}
func OutputPath(dir, licenseNumber, report, ext string) string {
	name := fmt.Sprintf("%s_%s_%s.%s", licenseNumber, report, time.Now().Format(timestampLayout), ext)
	return filepath.Join(dir, name)
}

// WriteCSVFile writes a CSV report, creating the output directory as
// needed. Columns are ordered by the priority list with alphabetical
// fallback; keys carrying detailPrefix group after the priority columns.
func WriteCSVFile(path string, rows []map[string]any, priority []string, detailPrefix string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}

	columns := OrderColumns(CollectColumns(rows), priority, detailPrefix)
	if err := WriteCSV(f, columns, rows); err != nil {
		f.Close()
		return fmt.Errorf("writing csv: %w", err)
	}
	return f.Close()
}

// WriteJSONFile writes v as indented JSON, creating the output directory
// as needed.
func WriteJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	return nil
}
