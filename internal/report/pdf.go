package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
)

// Layout in millimetres on A4 portrait
const (
	pageMargin  = 15.0
	lineHeight  = 6.0
	rowHeight   = 7.0
	barHeight   = 6.0
	labelWidth  = 45.0
	titleSize   = 18.0
	sectionSize = 13.0
	bodySize    = 10.0
)

var (
	colorHeader = [3]int{37, 99, 235}
	colorStripe = [3]int{241, 245, 249}
	colorBarA   = [3]int{37, 99, 235}
	colorBarB   = [3]int{234, 88, 12}
	colorMuted  = [3]int{100, 116, 139}
)

// Chart is a pre-rendered chart image embedded in a report
type Chart struct {
	Title string
	PNG   []byte
}

// now is the clock used for report dates
var now = time.Now

// page wraps an fpdf document with the report building blocks. Text goes
// through a cp1252 translator so accented names render with core fonts.
type page struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	width  float64
	charts int
}

func newPage(title string) *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("mailpanel", true)
	pdf.AliasNbPages("")

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	w, _ := pdf.GetPageSize()
	p.width = w - 2*pageMargin

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		pdf.SetFont("Helvetica", "I", 8)
		p.textColor(colorMuted)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s  |  %d/{nb}", p.tr(title), pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return p
}

func (p *page) textColor(c [3]int) { p.pdf.SetTextColor(c[0], c[1], c[2]) }
func (p *page) fillColor(c [3]int) { p.pdf.SetFillColor(c[0], c[1], c[2]) }

func (p *page) heading(title, subtitle string) {
	p.pdf.SetFont("Helvetica", "B", titleSize)
	p.textColor([3]int{15, 23, 42})
	p.pdf.CellFormat(0, 10, p.tr(title), "", 1, "L", false, 0, "")
	if subtitle != "" {
		p.pdf.SetFont("Helvetica", "", bodySize)
		p.textColor(colorMuted)
		p.pdf.CellFormat(0, lineHeight, p.tr(subtitle), "", 1, "L", false, 0, "")
	}
	p.pdf.Ln(4)
}

func (p *page) section(title string) {
	p.pdf.Ln(3)
	p.pdf.SetFont("Helvetica", "B", sectionSize)
	p.textColor([3]int{15, 23, 42})
	p.pdf.CellFormat(0, 8, p.tr(title), "B", 1, "L", false, 0, "")
	p.pdf.Ln(2)
}

// info renders label/value rows
func (p *page) info(rows [][2]string) {
	for _, r := range rows {
		p.pdf.SetFont("Helvetica", "B", bodySize)
		p.textColor(colorMuted)
		p.pdf.CellFormat(labelWidth, lineHeight, p.tr(r[0]), "", 0, "L", false, 0, "")
		p.pdf.SetFont("Helvetica", "", bodySize)
		p.textColor([3]int{15, 23, 42})
		p.pdf.CellFormat(0, lineHeight, p.tr(r[1]), "", 1, "L", false, 0, "")
	}
}

// table renders a striped table; widths are fractions of the usable width
func (p *page) table(header []string, widths []float64, rows [][]string) {
	p.pdf.SetFont("Helvetica", "B", bodySize)
	p.fillColor(colorHeader)
	p.pdf.SetTextColor(255, 255, 255)
	for i, h := range header {
		p.pdf.CellFormat(widths[i]*p.width, rowHeight, p.tr(h), "", 0, "L", true, 0, "")
	}
	p.pdf.Ln(-1)

	p.pdf.SetFont("Helvetica", "", bodySize)
	p.textColor([3]int{15, 23, 42})
	p.fillColor(colorStripe)
	for n, row := range rows {
		for i, cell := range row {
			w := widths[i] * p.width
			align := "L"
			if i > 0 {
				align = "R"
			}
			p.pdf.CellFormat(w, rowHeight, p.fit(cell, w-2), "", 0, align, n%2 == 1, 0, "")
		}
		p.pdf.Ln(-1)
	}
	if len(rows) == 0 {
		p.textColor(colorMuted)
		p.pdf.CellFormat(0, rowHeight, p.tr("No data"), "", 1, "L", false, 0, "")
	}
}

// fit translates s and truncates it to width w
func (p *page) fit(s string, w float64) string {
	s = p.tr(s)
	if p.pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && p.pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

type bar struct {
	label string
	value int
	color [3]int
}

// bars draws horizontal bars scaled to the largest value
func (p *page) bars(items []bar) {
	maxValue := 0
	for _, b := range items {
		maxValue = max(maxValue, b.value)
	}
	span := p.width - labelWidth - 20

	p.pdf.SetFont("Helvetica", "", bodySize)
	for _, b := range items {
		x, y := p.pdf.GetX(), p.pdf.GetY()
		p.textColor([3]int{15, 23, 42})
		p.pdf.CellFormat(labelWidth, barHeight, p.tr(b.label), "", 0, "L", false, 0, "")

		w := 0.0
		if maxValue > 0 {
			w = span * float64(b.value) / float64(maxValue)
		}
		if w > 0 {
			p.fillColor(b.color)
			p.pdf.Rect(x+labelWidth, y+1, w, barHeight-2, "F")
		}
		p.pdf.SetXY(x+labelWidth+w+2, y)
		p.pdf.CellFormat(18, barHeight, strconv.Itoa(b.value), "", 1, "L", false, 0, "")
		p.pdf.SetX(x)
	}
}

// chart embeds a PNG scaled to the usable width
func (p *page) chart(c Chart) {
	if len(c.PNG) == 0 {
		return
	}
	if c.Title != "" {
		p.pdf.SetFont("Helvetica", "B", bodySize)
		p.textColor(colorMuted)
		p.pdf.CellFormat(0, lineHeight, p.tr(c.Title), "", 1, "L", false, 0, "")
	}
	name := fmt.Sprintf("chart-%d", p.charts)
	p.charts++
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(c.PNG))
	p.pdf.ImageOptions(name, pageMargin, 0, p.width, 0, true, opts, 0, "")
	p.pdf.Ln(3)
}

func (p *page) paragraph(text string) {
	p.pdf.SetFont("Helvetica", "", bodySize)
	p.textColor([3]int{15, 23, 42})
	p.pdf.MultiCell(0, lineHeight, p.tr(text), "", "L", false)
	p.pdf.Ln(1)
}

// render finishes the document in memory
func (p *page) render(name string) (*Document, error) {
	if err := p.pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to build PDF: %w", err)
	}
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return &Document{Name: name, data: buf.Bytes()}, nil
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}
