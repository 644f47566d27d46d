package oddsmath

import (
	"fmt"
	"math"
)

// American odds are the canonical representation throughout the pipeline.
// Decimal odds only appear at two boundaries: the odds feed (which quotes
// decimal prices) and the odds-range bucket thresholds.

// DecimalToAmerican converts decimal odds to American odds
// Decimal 2.50 → American +150
// Decimal 1.67 → American -150
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %v: must be > 1.0", decimal)
	}

	if decimal >= 2.0 {
		// Positive American odds: (decimal - 1) * 100
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}

	// Negative American odds: -100 / (decimal - 1)
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}

	if american > 0 {
		return (float64(american) / 100.0) + 1.0, nil
	}

	return (100.0 / float64(-american)) + 1.0, nil
}

// ImpliedProbability converts American odds to the win probability the quote
// encodes, assuming no bookmaker margin.
// +130 → 100/230 ≈ 0.435
// -150 → 150/250 = 0.600
func ImpliedProbability(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}

	if american > 0 {
		return 100.0 / (100.0 + float64(american)), nil
	}

	abs := float64(-american)
	return abs / (abs + 100.0), nil
}
