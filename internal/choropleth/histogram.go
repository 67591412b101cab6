package choropleth

import "vaxmap/internal/geo"

// Bucket is one histogram slot.
type Bucket struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// Histogram holds one bucket per band, always in band order.
type Histogram []Bucket

// BuildHistogram counts every feature into its band. Unlike ComputeStats it
// does not skip zero rates; those land in the first band.
func BuildHistogram(features []geo.Feature) Histogram {
	h := emptyHistogram()
	for _, f := range features {
		h[Classify(f.Rate()).Index].Count++
	}
	return h
}

func emptyHistogram() Histogram {
	h := make(Histogram, BandCount)
	for i, b := range bands {
		h[i] = Bucket{Label: b.Label, Color: b.Color}
	}
	return h
}

// Labels returns the bucket labels in order.
func (h Histogram) Labels() []string {
	out := make([]string, len(h))
	for i, b := range h {
		out[i] = b.Label
	}
	return out
}

// Values returns the bucket counts in order.
func (h Histogram) Values() []int {
	out := make([]int, len(h))
	for i, b := range h {
		out[i] = b.Count
	}
	return out
}

// Colors returns the bucket colors in order.
func (h Histogram) Colors() []string {
	out := make([]string, len(h))
	for i, b := range h {
		out[i] = b.Color
	}
	return out
}

// Counts returns the label to count mapping.
func (h Histogram) Counts() map[string]int {
	out := make(map[string]int, len(h))
	for _, b := range h {
		out[b.Label] = b.Count
	}
	return out
}

// Total returns the number of counted features.
func (h Histogram) Total() int {
	n := 0
	for _, b := range h {
		n += b.Count
	}
	return n
}
