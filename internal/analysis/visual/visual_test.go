package visual

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"vaxmap/internal/choropleth"
	"vaxmap/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHistogram() choropleth.Histogram {
	fs := []geo.Feature{
		geo.NewFeature(0, map[string]any{geo.PropRate: 500.0}),
		geo.NewFeature(1, map[string]any{geo.PropRate: 2500.0}),
		geo.NewFeature(2, map[string]any{geo.PropRate: 6500.0}),
	}
	return choropleth.BuildHistogram(fs)
}

func TestHistogramHTML_ContainsBandsAndColors(t *testing.T) {
	html, err := HistogramHTML(sampleHistogram(), Options{Title: "Distribution"})
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "Distribution")
	assert.Contains(t, out, "Number of Counties")
	for _, c := range choropleth.Colors {
		assert.Contains(t, out, c)
	}
	assert.Contains(t, out, "60%+")
}

func TestSummaryHTML_Subtitle(t *testing.T) {
	stats := choropleth.Stats{Total: 4, Counted: 4, Average: 27.5, Max: 65, Min: 5}
	html, err := SummaryHTML(sampleHistogram(), stats, true, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(html), "Avg 27.5%")

	assert.Equal(t, "No vaccination data", StatsSubtitle(choropleth.Stats{}, false))
}

func TestHistogramPNG_Decodes(t *testing.T) {
	img, err := HistogramPNG(sampleHistogram(), Options{WidthPx: 480, HeightPx: 240})
	require.NoError(t, err)
	require.NotEmpty(t, img.Bytes)
	assert.Equal(t, "histogram.png", img.Filename)
	decoded, err := png.Decode(bytes.NewReader(img.Bytes))
	require.NoError(t, err)
	assert.Greater(t, decoded.Bounds().Dx(), 0)
	assert.True(t, strings.HasPrefix(img.DataURI(), "data:image/png;base64,"))
}

func TestHistogramPNG_EmptyHistogram(t *testing.T) {
	img, err := HistogramPNG(choropleth.BuildHistogram(nil), Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, img.Bytes)
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0xfe, G: 0xe5, B: 0xd9, A: 255}, hexColor("#fee5d9"))
	assert.Equal(t, color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 255}, hexColor("#999"))
	assert.Equal(t, color.RGBA{A: 255}, hexColor("nope"))
}
