package services

import "math"

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeSessionPrice prices a booking from the mentor's hourly rate,
// rounded to cents.
func ComputeSessionPrice(hourlyRate float64, durationMinutes int) float64 {
	return round2(hourlyRate * float64(durationMinutes) / 60)
}

// computeFeeSplit derives the platform fee and the mentor's net from a gross
// amount. The split is persisted at earning creation and never recomputed,
// so later fee-rate changes do not rewrite history.
func computeFeeSplit(gross, feeRate float64) (fee, net float64) {
	fee = round2(gross * feeRate)
	net = round2(gross - fee)
	return fee, net
}
