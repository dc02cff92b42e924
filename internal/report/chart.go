package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/foxzi/mailpanel/internal/models"
)

// Raster chart size in pixels
const (
	chartWidth     = 720
	chartHeight    = 260
	chartPad       = 16
	maxChartGroups = 12
)

// columnChart renders groups of columns scaled to the largest value. Column j
// of every group is painted with palette[j].
func columnChart(title string, groups [][]float64, palette [][3]int) (Chart, error) {
	if len(groups) > maxChartGroups {
		groups = groups[:maxChartGroups]
	}

	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	maxValue := 0.0
	for _, g := range groups {
		for _, v := range g {
			maxValue = max(maxValue, v)
		}
	}

	baseline := chartHeight - chartPad
	fill(img, image.Rect(chartPad, baseline, chartWidth-chartPad, baseline+2), colorMuted)

	if len(groups) > 0 && maxValue > 0 {
		slot := (chartWidth - 2*chartPad) / len(groups)
		for i, g := range groups {
			if len(g) == 0 {
				continue
			}
			colWidth := (slot - chartPad) / len(g)
			x := chartPad + i*slot + chartPad/2
			for j, v := range g {
				h := int(v / maxValue * float64(baseline-chartPad))
				if h <= 0 {
					continue
				}
				c := palette[j%len(palette)]
				fill(img, image.Rect(x+j*colWidth, baseline-h, x+(j+1)*colWidth-2, baseline), c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Chart{}, fmt.Errorf("failed to encode chart: %w", err)
	}
	return Chart{Title: title, PNG: buf.Bytes()}, nil
}

func fill(img draw.Image, r image.Rectangle, c [3]int) {
	src := image.NewUniform(color.RGBA{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: 255})
	draw.Draw(img, r, src, image.Point{}, draw.Src)
}

// recipientsChart plots the recipient count of the first campaigns
func recipientsChart(campaigns []models.Campaign) (Chart, error) {
	groups := make([][]float64, 0, min(len(campaigns), maxChartGroups))
	for _, c := range campaigns {
		groups = append(groups, []float64{float64(groupSize(c))})
	}
	title := "Recipients per campaign"
	if len(campaigns) > maxChartGroups {
		title = fmt.Sprintf("Recipients per campaign (first %d)", maxChartGroups)
	}
	return columnChart(title, groups, [][3]int{colorBarA})
}

// ratesChart plots open, click and conversion rate of both variants side by side
func ratesChart(r models.ABTestResults) (Chart, error) {
	a, b := r.GroupA, r.GroupB
	return columnChart("Open, click and conversion rate (A blue, B orange)", [][]float64{
		{a.OpenRate(), b.OpenRate()},
		{a.ClickRate(), b.ClickRate()},
		{a.ConversionRate(), b.ConversionRate()},
	}, [][3]int{colorBarA, colorBarB})
}
