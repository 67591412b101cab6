// Package visual renders the vaccination histogram outside the browser.
package visual

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"vaxmap/internal/choropleth"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ImageResult is a rendered PNG.
type ImageResult struct {
	Bytes       []byte `json:"-"`
	Base64      string `json:"base64"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

func (r *ImageResult) DataURI() string {
	if r == nil {
		return ""
	}
	if r.Base64 == "" && len(r.Bytes) > 0 {
		r.Base64 = base64.StdEncoding.EncodeToString(r.Bytes)
	}
	if r.Base64 == "" {
		return ""
	}
	return "data:image/png;base64," + r.Base64
}

// Options controls chart text and size.
type Options struct {
	Title    string
	Series   string
	Subtitle string
	WidthPx  int
	HeightPx int
}

const (
	colorBackground    = "#ffffff"
	colorTextPrimary   = "#333333"
	colorTextSecondary = "#666666"
	colorBarBorder     = "#667eea"

	defaultWidthPx  = 900
	defaultHeightPx = 420
)

func (o Options) normalized() Options {
	if strings.TrimSpace(o.Title) == "" {
		o.Title = "Vaccination Rate Distribution"
	}
	if strings.TrimSpace(o.Series) == "" {
		o.Series = "Number of Counties"
	}
	if o.WidthPx <= 0 {
		o.WidthPx = defaultWidthPx
	}
	if o.HeightPx <= 0 {
		o.HeightPx = defaultHeightPx
	}
	return o
}

// HistogramChart builds the bar chart: one bar per band, colored like the map.
func HistogramChart(h choropleth.Histogram, o Options) *charts.Bar {
	o = o.normalized()
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       o.Title,
			Width:           fmt.Sprintf("%dpx", o.WidthPx),
			Height:          fmt.Sprintf("%dpx", o.HeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         o.Title,
			Subtitle:      o.Subtitle,
			Left:          "center",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 16},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "value",
			Min:       0,
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
	)
	bar.SetXAxis(h.Labels())
	bar.AddSeries(o.Series, barData(h))
	return bar
}

func barData(h choropleth.Histogram) []opts.BarData {
	out := make([]opts.BarData, len(h))
	for i, b := range h {
		out[i] = opts.BarData{
			Name:  b.Label,
			Value: b.Count,
			ItemStyle: &opts.ItemStyle{
				Color:       b.Color,
				BorderColor: colorBarBorder,
			},
		}
	}
	return out
}

// HistogramHTML renders the standalone chart page.
func HistogramHTML(h choropleth.Histogram, o Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := HistogramChart(h, o).Render(&buf); err != nil {
		return nil, fmt.Errorf("render histogram html: %w", err)
	}
	return buf.Bytes(), nil
}

// SummaryHTML renders a page with the stats line as subtitle and the
// histogram below it; the report screenshots this page.
func SummaryHTML(h choropleth.Histogram, stats choropleth.Stats, hasStats bool, o Options) ([]byte, error) {
	o.Subtitle = StatsSubtitle(stats, hasStats)
	page := components.NewPage()
	page.PageTitle = o.normalized().Title
	page.AddCharts(HistogramChart(h, o))
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render summary html: %w", err)
	}
	return buf.Bytes(), nil
}

// StatsSubtitle is the one-line stats summary used under chart titles.
func StatsSubtitle(stats choropleth.Stats, hasStats bool) string {
	if !hasStats {
		return "No vaccination data"
	}
	d := stats.Display()
	return fmt.Sprintf("Counties %s | Avg %s | Max %s | Min %s", d.Total, d.Average, d.Max, d.Min)
}
