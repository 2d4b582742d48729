package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestChartColumn(t *testing.T) {
	cases := []struct {
		label string
		cols  []string
		want  string
		ok    bool
	}{
		{"Passing Stats", []string{"player", "CMP", "YDS"}, "YDS", true},
		{"Rushing Stats", []string{"player", "CAR", "YDS"}, "CAR", true},
		{"Rushing Stats", []string{"player", "YDS"}, "YDS", true},
		{"Receiving Stats", []string{"player", "REC", "YDS"}, "REC", true},
		{"Scoring Stats", []string{"player", "TD", "GP"}, "TD", true},
		{"Punting Stats", []string{"player", "GP"}, "GP", true},
		{"Field Goal Stats", []string{"player", "FGM"}, "", false},
	}
	for _, c := range cases {
		got, ok := BestChartColumn(c.label, c.cols)
		assert.Equal(t, c.want, got, c.label)
		assert.Equal(t, c.ok, ok, c.label)
	}
}

func TestChartPoints(t *testing.T) {
	sec := Section{
		Columns: []string{"player", "YDS"},
		Rows: [][]any{
			{"A", int64(10)},
			{nil, int64(20)},
			{"B", "n/a"},
			{"C", 2.5},
		},
	}
	assert.Equal(t, []Point{{"A", 10}, {"C", 2.5}}, ChartPoints(sec, "YDS"))
	assert.Nil(t, ChartPoints(sec, "TD"))
}
