// Package report renders dashboard sections as downloadable documents.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hyperifyio/statscrape/internal/dashboard"
)

// WriteXLSX writes one sheet per section with its table and, when the
// section has a chart, a column chart of the charted values.
func WriteXLSX(w io.Writer, title string, sections []dashboard.Section) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := f.GetSheetName(0)
	if len(sections) == 0 {
		if err := f.SetSheetName(first, "Stats"); err != nil {
			return err
		}
		_ = f.SetCellValue("Stats", "A1", title)
		_ = f.SetCellValue("Stats", "A2", "No stats found.")
		_, err := f.WriteTo(w)
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F4F4F4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	for i, sec := range sections {
		sheet := sheetName(sec.Label, i)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := writeSection(f, sheet, sec, header); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return err
}

func writeSection(f *excelize.File, sheet string, sec dashboard.Section, header int) error {
	for c, name := range sec.Columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	if len(sec.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(sec.Columns), 1)
		_ = f.SetCellStyle(sheet, "A1", last, header)
	}
	for r, row := range sec.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 24)

	if sec.Chart == nil || len(sec.Chart.Points) == 0 {
		return nil
	}
	// Chart data sits two columns right of the table.
	nameCol := len(sec.Columns) + 2
	valCol := nameCol + 1
	nameLetter, err := excelize.ColumnNumberToName(nameCol)
	if err != nil {
		return err
	}
	valLetter, err := excelize.ColumnNumberToName(valCol)
	if err != nil {
		return err
	}
	_ = f.SetCellValue(sheet, fmt.Sprintf("%s1", nameLetter), dashboard.PlayerColumn)
	_ = f.SetCellValue(sheet, fmt.Sprintf("%s1", valLetter), sec.Chart.Column)
	for i, p := range sec.Chart.Points {
		_ = f.SetCellValue(sheet, fmt.Sprintf("%s%d", nameLetter, i+2), p.Player)
		_ = f.SetCellValue(sheet, fmt.Sprintf("%s%d", valLetter, i+2), p.Value)
	}
	lastRow := len(sec.Chart.Points) + 1
	anchor, _ := excelize.CoordinatesToCellName(valCol+2, 2)
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$%s$1", sheet, valLetter),
			Categories: fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, nameLetter, nameLetter, lastRow),
			Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, valLetter, valLetter, lastRow),
		}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}

// sheetName trims a label to Excel's 31 character limit and strips the
// characters sheet names may not contain.
func sheetName(label string, idx int) string {
	out := make([]rune, 0, len(label))
	for _, r := range label {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']', '\'':
			continue
		}
		out = append(out, r)
	}
	if len(out) > 31 {
		out = out[:31]
	}
	if len(out) == 0 {
		return fmt.Sprintf("Section %d", idx+1)
	}
	return string(out)
}
