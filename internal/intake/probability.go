package intake

import "fmt"

// NormalizeProbability maps an upstream probability value into the [0,1]
// interval. Feeds deliver fractions (0.73), percentages (73), and the
// occasional garbage value; the rules are:
//
//   - negative values clamp to 0
//   - values in [0,1] pass through
//   - values in (1,100] are treated as percentages and divided by 100
//   - values above 100 are invalid: ok is false and the value must be
//     rendered as unknown, never guessed
//
// Out-of-range is deliberately kept distinct from missing: callers that need
// the conflated behavior can collapse both to the unknown display themselves.
func NormalizeProbability(v float64) (float64, bool) {
	switch {
	case v < 0:
		return 0, true
	case v <= 1:
		return v, true
	case v <= 100:
		return v / 100, true
	default:
		return 0, false
	}
}

// FormatProbability renders a raw upstream probability for display, e.g.
// "73.0%". Missing or out-of-range values render as an em dash.
func FormatProbability(v float64, present bool) string {
	if !present {
		return "—"
	}
	p, ok := NormalizeProbability(v)
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%.1f%%", p*100)
}
