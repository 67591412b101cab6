package dashboard

import (
	"encoding/json"
	"fmt"
	"strconv"

	"vaxmap/internal/choropleth"
	"vaxmap/internal/geo"
)

// Placeholder is the info panel text when no county is selected.
const Placeholder = "Click on a county to view vaccination details"

// View is the map camera.
type View struct {
	Center [2]float64 `json:"center"`
	Zoom   float64    `json:"zoom"`
}

// Row is one property line of the info panel.
type Row struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Panel is the info panel content.
type Panel struct {
	Title       string `json:"title,omitempty"`
	Rate        string `json:"rate,omitempty"`
	Rows        []Row  `json:"rows,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// State is everything the page needs to render the interactive parts. It is
// a value: Select and Reset return a new State.
type State struct {
	View      View  `json:"view"`
	Selected  *int  `json:"selected"`
	Panel     Panel `json:"panel"`
	ShowChart bool  `json:"show_chart"`

	home View
}

// Initial returns the state shown on page load.
func Initial(home View) State {
	return State{
		View:  home,
		Panel: Panel{Placeholder: Placeholder},
		home:  home,
	}
}

// Select shows the detail panel for f. The camera is left where it is.
func (s State) Select(f geo.Feature) State {
	idx := f.Index
	s.Selected = &idx
	s.Panel = BuildPanel(f)
	s.ShowChart = true
	return s
}

// Reset flies back to the home view and clears the selection.
func (s State) Reset() State {
	return Initial(s.home)
}

// BuildPanel renders the info panel for a feature. Rows follow the property
// order of the document, without name and fullyVaxPer10k.
func BuildPanel(f geo.Feature) Panel {
	props := f.Properties()
	p := Panel{
		Title: f.Name() + " County",
		Rate:  FormatPercent(f.Rate()) + "%",
	}
	for _, key := range f.KeyOrder {
		if key == geo.PropName || key == geo.PropRate {
			continue
		}
		p.Rows = append(p.Rows, Row{Key: key, Value: FormatValue(props[key])})
	}
	return p
}

// FormatPercent formats v with one decimal.
func FormatPercent(v float64) string {
	return choropleth.FormatFixed1(v)
}

// FormatValue renders a property value for the panel. JSON numbers are
// shown divided by 100 with one decimal; strings verbatim.
func FormatValue(v any) string {
	if geo.IsNumber(v) {
		return FormatPercent(geo.ToFloat64(v) / geo.RateScale)
	}
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
