package report

import (
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/statscrape/internal/dashboard"
)

const (
	rowHeight   = 6.0
	barHeight   = 5.0
	labelWidth  = 50.0
	pageMargin  = 12.0
	chartBottom = 20.0
)

// WritePDF renders every section as a table followed by a horizontal bar
// chart, landscape A4.
func WritePDF(w io.Writer, title string, sections []dashboard.Section) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, chartBottom)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetCreationDate(time.Now())
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(sections) == 0 {
		pdf.CellFormat(0, 8, "No stats found.", "", 1, "L", false, 0, "")
		return pdf.Output(w)
	}

	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*pageMargin
	for _, sec := range sections {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(sec.Label), "", 1, "L", false, 0, "")

		colW := usable
		if n := len(sec.Columns); n > 0 {
			colW = usable / float64(n)
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(244, 244, 244)
		for _, c := range sec.Columns {
			pdf.CellFormat(colW, rowHeight, tr(c), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for _, row := range sec.Rows {
			for i, v := range row {
				align := "R"
				if i == 0 {
					align = "L"
				}
				pdf.CellFormat(colW, rowHeight, tr(dashboard.FormatCell(v)), "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}

		if sec.Chart == nil || len(sec.Chart.Points) == 0 {
			continue
		}
		need := float64(len(sec.Chart.Points))*(barHeight+1) + 12
		if pdf.GetY()+need > pageH-chartBottom {
			pdf.AddPage()
		}
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, tr(sec.Chart.Column+" by player"), "", 1, "L", false, 0, "")
		drawBars(pdf, tr, sec.Chart, usable-labelWidth-20)
	}
	return pdf.Output(w)
}

func drawBars(pdf *gofpdf.Fpdf, tr func(string) string, ch *dashboard.Chart, maxW float64) {
	peak := 0.0
	for _, p := range ch.Points {
		if p.Value > peak {
			peak = p.Value
		}
	}
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetFillColor(255, 182, 18)
	for _, p := range ch.Points {
		x, y := pdf.GetX(), pdf.GetY()
		pdf.CellFormat(labelWidth, barHeight, tr(p.Player), "", 0, "L", false, 0, "")
		wd := 0.0
		if peak > 0 && p.Value > 0 {
			wd = p.Value / peak * maxW
		}
		if wd > 0 {
			pdf.Rect(x+labelWidth, y+0.5, wd, barHeight-1, "F")
		}
		pdf.SetXY(x+labelWidth+wd+2, y)
		pdf.CellFormat(20, barHeight, strconv.FormatFloat(p.Value, 'f', -1, 64), "", 1, "L", false, 0, "")
		pdf.SetY(y + barHeight + 1)
	}
}
