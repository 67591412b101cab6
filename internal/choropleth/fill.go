package choropleth

import (
	"errors"
	"fmt"

	"vaxmap/internal/geo"
)

// FillExpression builds the Mapbox GL "case" expression that colors each
// county from its raw fullyVaxPer10k property. Thresholds come from the same
// table Classify uses, scaled into raw units.
//
//	["case", ["<=", <value>, 2000], "#fee5d9", ..., "#67000d"]
func FillExpression() []any {
	value := []any{"to-number", []any{"get", geo.PropRate}, 0}
	raw := RawThresholds()
	expr := make([]any, 0, 2+2*len(raw))
	expr = append(expr, "case")
	for i, t := range raw {
		expr = append(expr, []any{"<=", value, t}, Colors[i])
	}
	return append(expr, Colors[BandCount-1])
}

var errMalformedFill = errors.New("malformed fill expression")

// EvalFill evaluates an expression produced by FillExpression against a raw
// property value, the way the map renderer would.
func EvalFill(expr []any, raw float64) (string, error) {
	if len(expr) < 2 || len(expr)%2 != 0 || expr[0] != "case" {
		return "", errMalformedFill
	}
	for i := 1; i+1 < len(expr); i += 2 {
		cond, ok := expr[i].([]any)
		if !ok || len(cond) != 3 || cond[0] != "<=" {
			return "", fmt.Errorf("%w: condition %d", errMalformedFill, i/2)
		}
		limit, ok := cond[2].(float64)
		if !ok {
			return "", fmt.Errorf("%w: threshold %d is %T", errMalformedFill, i/2, cond[2])
		}
		color, ok := expr[i+1].(string)
		if !ok {
			return "", fmt.Errorf("%w: color %d", errMalformedFill, i/2)
		}
		if raw <= limit {
			return color, nil
		}
	}
	fallback, ok := expr[len(expr)-1].(string)
	if !ok {
		return "", fmt.Errorf("%w: fallback color", errMalformedFill)
	}
	return fallback, nil
}

// ConsistencySamples are percent rates on and around every band boundary.
func ConsistencySamples() []float64 {
	samples := []float64{0, 100}
	for _, t := range Thresholds {
		samples = append(samples, t-0.01, t, t+0.01)
	}
	return samples
}

// VerifyFillConsistency checks that the map fill expression and ColorFor
// agree for each percent rate in samples.
func VerifyFillConsistency(samples []float64) error {
	expr := FillExpression()
	for _, rate := range samples {
		got, err := EvalFill(expr, rate*geo.RateScale)
		if err != nil {
			return err
		}
		if want := ColorFor(rate); got != want {
			return fmt.Errorf("fill expression disagrees with band table at %.2f%%: %s != %s", rate, got, want)
		}
	}
	return nil
}
