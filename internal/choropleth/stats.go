package choropleth

import (
	"math"
	"strconv"

	"vaxmap/internal/geo"

	"github.com/shopspring/decimal"
)

// Stats summarises the vaccination rates of a collection. Average, Max and
// Min are percentages rounded to one decimal and only consider counties with
// a positive rate; Total counts every feature.
type Stats struct {
	Total   int     `json:"total"`
	Counted int     `json:"counted"`
	Average float64 `json:"avg"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

// ComputeStats derives Stats from features. ok is false when no feature has
// a positive rate; the stats panel is skipped in that case.
func ComputeStats(features []geo.Feature) (stats Stats, ok bool) {
	var (
		sum     float64
		counted int
		lo, hi  float64
	)
	for _, f := range features {
		rate := f.Rate()
		if rate <= 0 {
			continue
		}
		if counted == 0 || rate > hi {
			hi = rate
		}
		if counted == 0 || rate < lo {
			lo = rate
		}
		sum += rate
		counted++
	}
	if counted == 0 {
		return Stats{}, false
	}
	return Stats{
		Total:   len(features),
		Counted: counted,
		Average: round1(sum / float64(counted)),
		Max:     round1(hi),
		Min:     round1(lo),
	}, true
}

func round1(v float64) float64 {
	f, _ := Round1(v).Float64()
	return f
}

// Round1 rounds v to one decimal, ties away from zero, using the exact binary
// value of v: 58.15 is stored just below the tie and becomes 58.1, while
// 58.25 is exact and becomes 58.3.
func Round1(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', 40, 64)).Round(1)
}

// FormatFixed1 renders v with exactly one decimal.
func FormatFixed1(v float64) string {
	return Round1(v).StringFixed(1)
}

// StatsDisplay is the stats panel text.
type StatsDisplay struct {
	Total   string `json:"total"`
	Average string `json:"avg"`
	Max     string `json:"max"`
	Min     string `json:"min"`
}

// Display formats the stats the way the panel shows them, e.g. "27.5%".
func (s Stats) Display() StatsDisplay {
	pct := func(v float64) string {
		return FormatFixed1(v) + "%"
	}
	return StatsDisplay{
		Total:   strconv.Itoa(s.Total),
		Average: pct(s.Average),
		Max:     pct(s.Max),
		Min:     pct(s.Min),
	}
}
