package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	return path
}

func TestReadCSVNames(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     []string
	}{
		{
			name:     "with header",
			contents: "name\nOG Kush 1g Prerolls\nPineapple Express 1g Prerolls\n",
			want:     []string{"OG Kush 1g Prerolls", "Pineapple Express 1g Prerolls"},
		},
		{
			name:     "without header",
			contents: "12345\n67890\n",
			want:     []string{"12345", "67890"},
		},
		{
			name:     "extra columns and blank lines",
			contents: "name,note\nBlue Dream,keep\n\nWedding Cake,\n",
			want:     []string{"Blue Dream", "Wedding Cake"},
		},
		{
			name:     "empty file",
			contents: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readCSVNames(writeTempCSV(t, tt.contents))
			if err != nil {
				t.Fatalf("readCSVNames() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("readCSVNames() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadCSVNamesMissingFile(t *testing.T) {
	if _, err := readCSVNames(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
