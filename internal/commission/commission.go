// Package commission contains the payout arithmetic of the partner program.
package commission

import "math"

// DefaultRate is the commission rate used by the landing page projection.
const DefaultRate = 0.30

// Estimate returns the projected payout in whole currency units for the
// given number of successful conversions, average deal value and commission
// rate (a fraction in [0,1]). It is a pure function with no error conditions;
// input range enforcement is the caller's concern.
func Estimate(conversions int, avgDealValue float64, rate float64) int64 {
	return int64(math.Round(float64(conversions) * avgDealValue * rate))
}

// AmountPaise derives a ledger entry amount in paise from the deal value in
// paise and the commission percentage (0-100), rounded half up.
func AmountPaise(dealValuePaise int64, percentage int) int64 {
	return (dealValuePaise*int64(percentage) + 50) / 100
}
