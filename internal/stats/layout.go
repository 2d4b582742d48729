// Package stats turns extracted tables into rows of the statistics table.
package stats

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hyperifyio/statscrape/internal/extract"
	"github.com/hyperifyio/statscrape/internal/store"
)

// TableMap gives the team stats page tables readable names. Even tables hold
// player names, the following odd table holds the matching numbers.
var TableMap = map[string]string{
	"table_0":  "passing_names",
	"table_1":  "passing_stats",
	"table_2":  "rushing_names",
	"table_3":  "rushing_stats",
	"table_4":  "receiving_names",
	"table_5":  "receiving_stats",
	"table_6":  "defense_names",
	"table_7":  "defense_stats",
	"table_8":  "scoring_names",
	"table_9":  "scoring_stats",
	"table_10": "kick_names",
	"table_11": "kick_stats",
	"table_12": "fg_names",
	"table_13": "fg_stats",
	"table_14": "punting_names",
	"table_15": "punting_stats",
}

// FriendlyName returns the readable name for a table id, or the id itself.
func FriendlyName(id string) string {
	if name, ok := TableMap[id]; ok {
		return name
	}
	return id
}

// Title renders a table name for display: "passing_stats" becomes
// "Passing Stats".
func Title(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Layout selects how table rows map onto statistic rows.
type Layout string

const (
	// Lists stores one row per scraped row, with the column names and values
	// as JSON arrays. The dashboard reads this layout.
	Lists Layout = "lists"
	// Pairs stores one row per scraped cell, keyed by friendly table name.
	Pairs Layout = "pairs"
)

// ParseLayout validates a layout name. Empty means Lists.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", Lists:
		return Lists, nil
	case Pairs:
		return Pairs, nil
	default:
		return "", fmt.Errorf("unknown layout %q (want lists or pairs)", s)
	}
}

// StatRow is one row of the statistics table.
type StatRow struct {
	Category  string
	Player    *string
	StatKey   string
	StatValue string
}

// Row converts r to a store row.
func (r StatRow) Row() store.Row {
	var player any
	if r.Player != nil {
		player = *r.Player
	}
	return store.Row{
		"category":   r.Category,
		"player":     player,
		"stat_key":   r.StatKey,
		"stat_value": r.StatValue,
	}
}

// Batch is the rows produced from one extracted table.
type Batch struct {
	Table string
	Rows  []StatRow
}

// Build flattens every non-empty table. drop lists columns removed in the
// Lists layout.
func Build(tables extract.Extracted, layout Layout, drop []string) ([]Batch, error) {
	var out []Batch
	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		b := Batch{Table: t.ID}
		for _, row := range t.Rows {
			switch layout {
			case Lists:
				sr, err := listsRow(t.ID, row.Without(drop...))
				if err != nil {
					return nil, err
				}
				b.Rows = append(b.Rows, sr)
			case Pairs:
				b.Rows = append(b.Rows, pairsRows(FriendlyName(t.ID), row)...)
			default:
				return nil, fmt.Errorf("unknown layout %q", layout)
			}
		}
		out = append(out, b)
	}
	return out, nil
}

func listsRow(category string, row extract.Row) (StatRow, error) {
	names := row.Keys()
	if names == nil {
		names = []string{}
	}
	keys, err := json.Marshal(names)
	if err != nil {
		return StatRow{}, err
	}
	values, err := json.Marshal(row.Values())
	if err != nil {
		return StatRow{}, err
	}
	return StatRow{
		Category:  category,
		Player:    playerOf(row),
		StatKey:   string(keys),
		StatValue: string(values),
	}, nil
}

func pairsRows(category string, row extract.Row) []StatRow {
	player := playerOf(row)
	var out []StatRow
	for _, k := range row.Keys() {
		if k == "Player" || k == "Name" {
			continue
		}
		v, _ := row.Get(k)
		out = append(out, StatRow{Category: category, Player: player, StatKey: k, StatValue: v})
	}
	return out
}

// playerOf returns the Player cell, else the Name cell when Player is empty
// or missing. Without a Name column an empty Player gives nil.
func playerOf(row extract.Row) *string {
	if p, ok := row.Get("Player"); ok && p != "" {
		return &p
	}
	if n, ok := row.Get("Name"); ok {
		return &n
	}
	return nil
}
