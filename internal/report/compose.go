package report

import (
	"github.com/t3-tools/t3-cli/internal/api"
	"github.com/t3-tools/t3-cli/internal/fetch"
)

// LabResultPriorityColumns lead the lab-results CSV so the package
// identity reads first.
var LabResultPriorityColumns = []string{"label", "item.name", "quantity", "unitOfMeasureAbbreviation"}

// LabResultPrefix marks lab-result columns in the joined CSV.
const LabResultPrefix = "labresult."

// PackageRows builds one flattened CSV row per package. When a package
// carries history detail, the initial quantity and unit extracted from
// the creation event are added as initialQuantity/initialUnit; the raw
// history itself stays out of the CSV.
func PackageRows(joined []fetch.Joined) []map[string]any {
	rows := make([]map[string]any, 0, len(joined))
	for _, j := range joined {
		row := Flatten(j.Base)
		if qty, unit, ok := HistoryInitialQuantity(j.Detail); ok {
			row["initialQuantity"] = qty
			row["initialUnit"] = unit
		}
		rows = append(rows, row)
	}
	return rows
}

// PackageDocs builds the JSON report form: each package verbatim, with
// its history embedded under a "history" key when present.
func PackageDocs(joined []fetch.Joined) []api.Record {
	docs := make([]api.Record, 0, len(joined))
	for _, j := range joined {
		doc := j.Base
		if j.Detail != nil {
			doc = j.Base.Clone()
			doc["history"] = j.Detail
		}
		docs = append(docs, doc)
	}
	return docs
}

// LabResultRows emits one row per (package, lab result) pair: the
// flattened lab-result fields prefixed with "labresult." merged over the
// flattened package fields. Packages without lab results contribute no
// rows.
func LabResultRows(joined []fetch.Joined) []map[string]any {
	var rows []map[string]any
	for _, j := range joined {
		base := Flatten(j.Base)
		for _, result := range j.Detail {
			row := make(map[string]any, len(base)+len(result))
			for k, v := range base {
				row[k] = v
			}
			for k, v := range Flatten(result) {
				row[LabResultPrefix+k] = v
			}
			rows = append(rows, row)
		}
	}
	return rows
}
