package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

var (
	ErrEmptyDocument = errors.New("geojson document is empty")
	ErrInvalidJSON   = errors.New("geojson document is not valid json")
)

// collectionSchema only asserts the shape the dashboard depends on: an
// object with a features array whose entries carry an optional properties
// object. The top-level type is not checked.
const collectionSchema = `{
  "type": "object",
  "required": ["features"],
  "properties": {
    "features": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "properties": {"type": ["object", "null"]}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("feature_collection.json", strings.NewReader(collectionSchema)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("feature_collection.json")
	})
	return schemaCompiled, schemaErr
}

// Validate checks that raw is an object with a features array.
func Validate(raw []byte) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return ErrEmptyDocument
	}
	if !gjson.ValidBytes(raw) {
		return ErrInvalidJSON
	}
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile feature collection schema: %w", err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("geojson schema: %w", err)
	}
	return nil
}

// Decode validates raw and returns the ordered collection. Features are
// decoded one by one so neither the collection nor its features need a
// "type" member.
func Decode(raw []byte) (*Collection, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	items := gjson.GetBytes(raw, "features").Array()
	out := &Collection{
		Raw:      raw,
		Features: make([]Feature, len(items)),
	}
	for i, item := range items {
		gf, err := decodeFeature(item)
		if err != nil {
			return nil, fmt.Errorf("decode feature %d: %w", i, err)
		}
		out.Features[i] = Feature{Index: i, KeyOrder: propertyKeys(item), geo: gf}
	}
	return out, nil
}

func decodeFeature(item gjson.Result) (*geojson.Feature, error) {
	var geometry orb.Geometry
	if g := item.Get("geometry"); g.IsObject() {
		geom, err := geojson.UnmarshalGeometry([]byte(g.Raw))
		if err != nil {
			return nil, err
		}
		geometry = geom.Geometry()
	}
	gf := geojson.NewFeature(geometry)
	if id := item.Get("id"); id.Exists() {
		gf.ID = id.Value()
	}
	if props := item.Get("properties"); props.IsObject() {
		if err := json.Unmarshal([]byte(props.Raw), &gf.Properties); err != nil {
			return nil, err
		}
	}
	return gf, nil
}

// propertyKeys walks the raw properties because decoded maps lose the key
// order the info panel displays. Non-object properties have no keys.
func propertyKeys(item gjson.Result) []string {
	props := item.Get("properties")
	if !props.IsObject() {
		return nil
	}
	var keys []string
	props.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}
