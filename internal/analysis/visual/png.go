package visual

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"vaxmap/internal/choropleth"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pixelsPerInch maps the configured pixel size to vg lengths.
const pixelsPerInch = 96

// HistogramPNG draws the histogram with gonum/plot. Each band is its own
// bar chart so it can carry its own color.
func HistogramPNG(h choropleth.Histogram, o Options) (ImageResult, error) {
	o = o.normalized()
	p := plot.New()
	p.Title.Text = o.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = o.Series
	p.Y.Min = 0

	maxCount := 0
	for i, b := range h {
		bars, err := plotter.NewBarChart(plotter.Values{float64(b.Count)}, vg.Points(36))
		if err != nil {
			return ImageResult{}, fmt.Errorf("bar %s: %w", b.Label, err)
		}
		bars.XMin = float64(i)
		bars.Color = hexColor(b.Color)
		bars.LineStyle.Color = hexColor(colorBarBorder)
		bars.LineStyle.Width = vg.Points(1)
		p.Add(bars)
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	if maxCount == 0 {
		p.Y.Max = 1
	} else {
		p.Y.Max = float64(maxCount) * 1.1
	}
	p.NominalX(h.Labels()...)
	p.X.Tick.Label.XAlign = draw.XCenter
	p.Add(plotter.NewGrid())

	width := vg.Length(float64(o.WidthPx)/pixelsPerInch) * vg.Inch
	height := vg.Length(float64(o.HeightPx)/pixelsPerInch) * vg.Inch
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return ImageResult{}, fmt.Errorf("histogram png: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return ImageResult{}, fmt.Errorf("histogram png: %w", err)
	}
	return ImageResult{
		Bytes:       buf.Bytes(),
		Filename:    "histogram.png",
		Description: fmt.Sprintf("%s (%d counties)", o.Title, h.Total()),
	}, nil
}

// hexColor parses #rgb or #rrggbb; anything else is black.
func hexColor(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{A: 255}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
