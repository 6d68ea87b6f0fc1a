package report

import (
	"testing"

	"github.com/t3-tools/t3-cli/internal/api"
	"github.com/t3-tools/t3-cli/internal/fetch"
)

func TestPackageRows(t *testing.T) {
	joined := []fetch.Joined{
		{
			Base: api.Record{
				"label": "A1",
				"item":  map[string]any{"name": "Flower"},
			},
			Detail: []api.Record{
				{"descriptions": []any{"Packaged 5.0 Grams of Flower"}},
			},
		},
		{
			Base: api.Record{"label": "B2"},
		},
	}

	rows := PackageRows(joined)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if rows[0]["item.name"] != "Flower" {
		t.Errorf("item.name = %v, want Flower", rows[0]["item.name"])
	}
	if rows[0]["initialQuantity"] != 5.0 || rows[0]["initialUnit"] != "Grams" {
		t.Errorf("initial fields = (%v, %v), want (5, Grams)", rows[0]["initialQuantity"], rows[0]["initialUnit"])
	}
	if _, ok := rows[1]["initialQuantity"]; ok {
		t.Error("package without history must not carry initialQuantity")
	}
}

func TestPackageDocs(t *testing.T) {
	base := api.Record{"label": "A1"}
	history := []api.Record{{"id": 1.0}}

	docs := PackageDocs([]fetch.Joined{{Base: base, Detail: history}})
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	if _, ok := docs[0]["history"]; !ok {
		t.Error("doc missing embedded history")
	}
	if _, ok := base["history"]; ok {
		t.Error("embedding history must not mutate the fetched record")
	}
}

func TestLabResultRows(t *testing.T) {
	joined := []fetch.Joined{
		{
			Base: api.Record{
				"label": "A1",
				"item":  map[string]any{"name": "Flower"},
			},
			Detail: []api.Record{
				{"testTypeName": "THC", "amount": 21.4},
				{"testTypeName": "CBD", "amount": 0.3},
			},
		},
		{
			// No lab results: contributes no rows.
			Base: api.Record{"label": "B2"},
		},
	}

	rows := LabResultRows(joined)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	for i, want := range []string{"THC", "CBD"} {
		if rows[i]["labresult.testTypeName"] != want {
			t.Errorf("row %d test type = %v, want %s", i, rows[i]["labresult.testTypeName"], want)
		}
		if rows[i]["label"] != "A1" {
			t.Errorf("row %d label = %v, want A1", i, rows[i]["label"])
		}
		if rows[i]["item.name"] != "Flower" {
			t.Errorf("row %d item.name = %v, want Flower", i, rows[i]["item.name"])
		}
	}
}
