package oddsmath

import "fmt"

// WinROI returns the per-unit return on a winning bet at the given American
// odds: odds/100 for underdog prices, 100/|odds| for favorite prices.
// A losing bet always returns exactly -1; callers handle that case.
func WinROI(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}

	if american > 0 {
		return float64(american) / 100.0, nil
	}

	return 100.0 / float64(-american), nil
}

// BetROI returns the realized per-unit return of a settled bet.
func BetROI(american int, won bool) (float64, error) {
	if !won {
		return -1.0, nil
	}
	return WinROI(american)
}
