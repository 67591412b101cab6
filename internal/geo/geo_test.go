package geo

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-122.3, 47.6]},
     "properties": {"name": "King", "fullyVaxPer10k": 6512, "population": 2252782, "region": "Puget Sound"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-117.4, 47.7]},
     "properties": {"fullyVaxPer10k": "2400", "name": ""}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-120.5, 46.6]},
     "properties": {"zeta": 1, "alpha": 2, "name": "Yakima"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-119.0, 46.2]},
     "properties": null}
  ]
}`

func TestDecode_PreservesOrder(t *testing.T) {
	coll, err := Decode([]byte(sampleDoc))
	require.NoError(t, err)
	require.Equal(t, 4, coll.Len())

	names := make([]string, 0, coll.Len())
	for i, f := range coll.Features {
		assert.Equal(t, i, f.Index)
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"King", "Unknown", "Yakima", "Unknown"}, names)

	assert.Equal(t, []string{"name", "fullyVaxPer10k", "population", "region"}, coll.Features[0].KeyOrder)
	assert.Equal(t, []string{"zeta", "alpha", "name"}, coll.Features[2].KeyOrder)
	assert.Empty(t, coll.Features[3].KeyOrder)
	assert.Equal(t, []byte(sampleDoc), coll.Raw)
}

func TestDecode_DefaultsAndCoercion(t *testing.T) {
	coll, err := Decode([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, 6512.0, coll.Features[0].Raw())
	assert.InDelta(t, 65.12, coll.Features[0].Rate(), 1e-9)
	assert.Equal(t, 24.0, coll.Features[1].Rate())
	assert.Zero(t, coll.Features[2].Raw())
	assert.Zero(t, coll.Features[3].Rate())
	assert.NotNil(t, coll.Features[3].Properties())
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]struct {
		doc    string
		target error
	}{
		"empty":        {doc: "  ", target: ErrEmptyDocument},
		"not json":     {doc: "{features:", target: ErrInvalidJSON},
		"no features":  {doc: `{"type":"FeatureCollection"}`},
		"array root":   {doc: `[{"type":"Feature"}]`},
		"features obj": {doc: `{"type":"FeatureCollection","features":{}}`},
		"bad props":    {doc: `{"type":"FeatureCollection","features":[{"type":"Feature","properties":3}]}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.doc))
			require.Error(t, err)
			if tc.target != nil {
				assert.True(t, errors.Is(err, tc.target), "got %v", err)
			}
		})
	}
}

func TestDecode_FeaturesWithoutType(t *testing.T) {
	doc := `{"features":[
	 {"properties":{"name":"Ferry","fullyVaxPer10k":2500}},
	 {"geometry":null,"properties":null},
	 {"id":7,"geometry":{"type":"Point","coordinates":[-118.5,47.0]},"properties":{"name":"Adams"}}
	]}`
	coll, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, 3, coll.Len())

	assert.Equal(t, "Ferry", coll.Features[0].Name())
	assert.Equal(t, 25.0, coll.Features[0].Rate())
	assert.Equal(t, []string{"name", "fullyVaxPer10k"}, coll.Features[0].KeyOrder)

	assert.Nil(t, coll.Features[1].KeyOrder)
	assert.Equal(t, DefaultName, coll.Features[1].Name())
	assert.Empty(t, coll.Features[1].Properties())

	assert.Equal(t, []string{"name"}, coll.Features[2].KeyOrder)
	assert.Equal(t, "Adams", coll.Features[2].Name())
}

func TestDecode_BadGeometry(t *testing.T) {
	_, err := Decode([]byte(`{"features":[{"geometry":{"type":"Blob","coordinates":[]},"properties":{}}]}`))
	assert.Error(t, err)
}

func TestDecode_EmptyCollection(t *testing.T) {
	coll, err := Decode([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Zero(t, coll.Len())
	_, ok := coll.At(0)
	assert.False(t, ok)
}

func TestToFloat64(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{nil, 0},
		{12.5, 12.5},
		{int(7), 7},
		{json.Number("42"), 42},
		{" 3100 ", 3100},
		{"abc", 0},
		{true, 0},
		{map[string]any{}, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToFloat64(tc.in), "input %#v", tc.in)
	}
}

func TestNewFeature(t *testing.T) {
	f := NewFeature(3, map[string]any{"name": "Adams", "fullyVaxPer10k": 3000.0, "b": 1.0})
	assert.Equal(t, 3, f.Index)
	assert.Equal(t, "Adams", f.Name())
	assert.Equal(t, 30.0, f.Rate())
	assert.Equal(t, []string{"b", "fullyVaxPer10k", "name"}, f.KeyOrder)

	numeric := NewFeature(0, map[string]any{"name": 53001.0})
	assert.Equal(t, "53001", numeric.Name())

	var zero Feature
	assert.Equal(t, DefaultName, zero.Name())
	assert.Zero(t, zero.Rate())
}
