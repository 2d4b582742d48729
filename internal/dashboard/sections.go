package dashboard

import "github.com/hyperifyio/statscrape/internal/store"

// Pair joins a names table with its stats table under a display label.
type Pair struct {
	Names string
	Stats string
	Label string
}

// PairMap lists the sections in display order.
var PairMap = []Pair{
	{"table_0", "table_1", "Passing Stats"},
	{"table_2", "table_3", "Rushing Stats"},
	{"table_4", "table_5", "Receiving Stats"},
	{"table_6", "table_7", "Defense Stats"},
	{"table_8", "table_9", "Scoring Stats"},
	{"table_10", "table_11", "Kicking Stats"},
	{"table_12", "table_13", "Field Goal Stats"},
	{"table_14", "table_15", "Punting Stats"},
}

// BuildSections rebuilds every non-empty section with its chart.
func BuildSections(rows []store.Row) []Section {
	var out []Section
	for _, p := range PairMap {
		sec := BuildSection(rows, p.Names, p.Stats, p.Label)
		if sec.Empty() {
			continue
		}
		out = append(out, WithChart(sec))
	}
	return out
}
