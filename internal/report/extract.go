package report

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/t3-tools/t3-cli/internal/api"
)

// The first history event's description encodes how the package was
// created. These patterns recover the initial quantity and unit.
var (
	packagedUnitRe    = regexp.MustCompile(`^Packaged ([0-9,.]+) ([a-zA-Z\s]+) of`)
	packagedPlantRe   = regexp.MustCompile(`^Packaged ([0-9,.]+) plant`)
	repackagedPlantRe = regexp.MustCompile(`^Repackaged ([0-9,.]+) plant`)
)

// InitialQuantity extracts the initial package quantity and unit of
// measure from a history description. Plant counts report as "Each".
// ok is false when the description matches none of the known forms.
func InitialQuantity(description string) (quantity float64, unit string, ok bool) {
	if m := packagedUnitRe.FindStringSubmatch(description); m != nil {
		return parseQuantity(m[1]), strings.TrimSpace(m[2]), true
	}
	if m := packagedPlantRe.FindStringSubmatch(description); m != nil {
		return parseQuantity(m[1]), "Each", true
	}
	if m := repackagedPlantRe.FindStringSubmatch(description); m != nil {
		return parseQuantity(m[1]), "Each", true
	}
	return 0, "", false
}

func parseQuantity(raw string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	return v
}

// HistoryInitialQuantity applies InitialQuantity to the first description
// of the first history event, the entry that records package creation.
func HistoryInitialQuantity(history []api.Record) (float64, string, bool) {
	if len(history) == 0 {
		return 0, "", false
	}
	descriptions, _ := history[0]["descriptions"].([]any)
	if len(descriptions) == 0 {
		return 0, "", false
	}
	first, _ := descriptions[0].(string)
	if first == "" {
		return 0, "", false
	}
	return InitialQuantity(first)
}
