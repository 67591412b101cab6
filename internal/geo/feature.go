// Package geo decodes the county GeoJSON document into ordered features
// with default substitution for missing or malformed properties.
package geo

import (
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

const (
	// PropName and PropRate are the property keys every county carries.
	PropName = "name"
	PropRate = "fullyVaxPer10k"

	// DefaultName replaces a missing or empty county name.
	DefaultName = "Unknown"

	// RateScale converts raw fullyVaxPer10k values into percentages.
	RateScale = 100
)

// Feature is one county of the collection.
type Feature struct {
	// Index is the position of the feature in the source document.
	Index int
	// KeyOrder lists the property keys in document order.
	KeyOrder []string

	geo *geojson.Feature
}

// NewFeature builds a feature from a property bag. Without an explicit order
// the keys are sorted so rendering stays deterministic.
func NewFeature(index int, props map[string]any, order ...string) Feature {
	gf := geojson.NewFeature(nil)
	for k, v := range props {
		gf.Properties[k] = v
	}
	if len(order) == 0 {
		order = make([]string, 0, len(props))
		for k := range props {
			order = append(order, k)
		}
		sort.Strings(order)
	}
	return Feature{Index: index, KeyOrder: order, geo: gf}
}

// Properties returns the raw property bag; callers must not modify it.
func (f Feature) Properties() geojson.Properties {
	if f.geo == nil {
		return nil
	}
	return f.geo.Properties
}

// Name returns the county name, or DefaultName when absent.
func (f Feature) Name() string {
	v, ok := f.Properties()[PropName]
	if !ok || v == nil {
		return DefaultName
	}
	var name string
	switch t := v.(type) {
	case string:
		name = strings.TrimSpace(t)
	case float64:
		name = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return DefaultName
	}
	if name == "" {
		return DefaultName
	}
	return name
}

// Raw returns fullyVaxPer10k as stored, 0 when absent or non-numeric.
func (f Feature) Raw() float64 {
	return ToFloat64(f.Properties()[PropRate])
}

// Rate returns the vaccination rate in percent.
func (f Feature) Rate() float64 {
	return f.Raw() / RateScale
}

// Collection is the decoded document. Raw keeps the original bytes so the
// map renderer receives exactly what was fetched.
type Collection struct {
	Raw      []byte
	Features []Feature
}

// Len returns the number of features.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Features)
}

// At returns the feature at index i.
func (c *Collection) At(i int) (Feature, bool) {
	if c == nil || i < 0 || i >= len(c.Features) {
		return Feature{}, false
	}
	return c.Features[i], true
}
