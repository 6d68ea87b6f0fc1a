package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
)

// CollectColumns returns the union of keys across all rows.
func CollectColumns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			columns = append(columns, k)
		}
	}
	return columns
}

// OrderColumns sorts column names by a priority preference list, then
// groups columns carrying detailPrefix, then falls back to alphabetical
// order within each group.
func OrderColumns(columns, priority []string, detailPrefix string) []string {
	rank := func(col string) int {
		for i, p := range priority {
			if col == p {
				return i
			}
		}
		if detailPrefix != "" && strings.HasPrefix(col, detailPrefix) {
			return len(priority)
		}
		return len(priority) + 1
	}

	out := make([]string, len(columns))
	copy(out, columns)
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

// WriteCSV writes rows under the given header. Zero rows still produce a
// valid file (header-only, or fully empty when there are no columns).
func WriteCSV(w io.Writer, columns []string, rows []map[string]any) error {
	writer := csv.NewWriter(w)
	if len(columns) > 0 {
		if err := writer.Write(columns); err != nil {
			return err
		}
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = formatValue(row[col])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		// JSON numbers decode as float64; print integers without the
		// trailing .0 the default float format would add.
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%v", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
