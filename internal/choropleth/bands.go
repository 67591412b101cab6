// Package choropleth classifies county vaccination rates into the six fixed
// color bands shared by the map fill and the histogram, and computes the
// aggregate statistics shown in the stats panel.
package choropleth

import "vaxmap/internal/geo"

// Band is one contiguous rate range with its display color and label.
// Upper is the closed upper bound in percent; the last band has no bound.
type Band struct {
	Index   int     `json:"index"`
	Label   string  `json:"label"`
	Color   string  `json:"color"`
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Bounded bool    `json:"bounded"`
}

// Contains reports whether rate (percent) falls into the band.
func (b Band) Contains(rate float64) bool {
	if b.Bounded && rate > b.Upper {
		return false
	}
	if b.Index > 0 && rate <= b.Lower {
		return false
	}
	return true
}

// Thresholds are the closed upper bounds, in percent, of every band but the last.
var Thresholds = [...]float64{20, 30, 40, 50, 60}

// Colors darken monotonically with the rate.
var Colors = [...]string{"#fee5d9", "#fcae91", "#fb6a4a", "#de2d26", "#a50f15", "#67000d"}

// Labels name the bands on the chart axis.
var Labels = [...]string{"0-20%", "20-30%", "30-40%", "40-50%", "50-60%", "60%+"}

// BandCount is the number of bands.
const BandCount = len(Colors)

var bands = buildBands()

func buildBands() [BandCount]Band {
	var out [BandCount]Band
	lower := 0.0
	for i := range out {
		b := Band{Index: i, Label: Labels[i], Color: Colors[i], Lower: lower}
		if i < len(Thresholds) {
			b.Upper = Thresholds[i]
			b.Bounded = true
			lower = Thresholds[i]
		}
		out[i] = b
	}
	return out
}

// Bands returns the band table in ascending order.
func Bands() []Band {
	out := make([]Band, BandCount)
	copy(out, bands[:])
	return out
}

// Classify maps a rate in percent to its band. Boundaries belong to the lower
// band, so 30.0 is "20-30%".
func Classify(rate float64) Band {
	for _, b := range bands {
		if b.Contains(rate) {
			return b
		}
	}
	return bands[BandCount-1]
}

// ColorFor returns the fill color for a rate in percent.
func ColorFor(rate float64) string {
	return Classify(rate).Color
}

// ClassifyRaw classifies a raw fullyVaxPer10k value.
func ClassifyRaw(raw float64) Band {
	return Classify(raw / geo.RateScale)
}

// RawThresholds returns Thresholds expressed in raw fullyVaxPer10k units.
func RawThresholds() []float64 {
	out := make([]float64, len(Thresholds))
	for i, t := range Thresholds {
		out[i] = t * geo.RateScale
	}
	return out
}
