package dashboard

import "strings"

// Chart is a bar chart of one numeric column per player.
type Chart struct {
	Column string  `json:"column"`
	Points []Point `json:"points"`
}

// Point is one bar.
type Point struct {
	Player string  `json:"player"`
	Value  float64 `json:"value"`
}

// BestChartColumn picks the column to chart for a section label.
func BestChartColumn(label string, columns []string) (string, bool) {
	has := func(c string) bool {
		for _, x := range columns {
			if x == c {
				return true
			}
		}
		return false
	}
	switch {
	case strings.HasPrefix(label, "Passing") && has("YDS"):
		return "YDS", true
	case strings.HasPrefix(label, "Rushing") && has("CAR"):
		return "CAR", true
	case strings.HasPrefix(label, "Receiving") && has("REC"):
		return "REC", true
	}
	for _, c := range []string{"YDS", "TD", "GP"} {
		if has(c) {
			return c, true
		}
	}
	return "", false
}

// ChartPoints returns the numeric values of column for rows with a player.
func ChartPoints(sec Section, column string) []Point {
	idx := sec.Column(column)
	p := sec.Column(PlayerColumn)
	if idx < 0 || p < 0 {
		return nil
	}
	var out []Point
	for _, row := range sec.Rows {
		player, ok := row[p].(string)
		if !ok {
			continue
		}
		var v float64
		switch n := row[idx].(type) {
		case int64:
			v = float64(n)
		case float64:
			v = n
		default:
			continue
		}
		out = append(out, Point{Player: player, Value: v})
	}
	return out
}

// WithChart attaches a chart when the section has a chartable column and at
// least one point.
func WithChart(sec Section) Section {
	col, ok := BestChartColumn(sec.Label, sec.Columns)
	if !ok {
		return sec
	}
	if pts := ChartPoints(sec, col); len(pts) > 0 {
		sec.Chart = &Chart{Column: col, Points: pts}
	}
	return sec
}
