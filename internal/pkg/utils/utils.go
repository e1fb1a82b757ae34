package utils

import (
	"fmt"
	"strconv"
)

// Weight of one baggage piece, in kg.
const (
	CarryOnKg = 7
	CheckedKg = 15
)

// ConvertMinutesToDuration convert minutes to duration format string
// Example: 125 -> "2h 5m"
func ConvertMinutesToDuration(durationInMinutes int64) string {
	h := durationInMinutes / 60
	m := durationInMinutes % 60

	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}

	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}

	return fmt.Sprintf("%dh %dm", h, m)
}

// FormatBaggage converts a piece count to a weight allowance.
// Example: (2, CheckedKg) -> "30kg", (0, CheckedKg) -> "-"
func FormatBaggage(pieces, kgPerPiece int) string {
	if pieces <= 0 {
		return "-"
	}

	return fmt.Sprintf("%dkg", pieces*kgPerPiece)
}

// FormatRupiah groups thousands with dots.
// Example: 1250000 -> "Rp1.250.000"
func FormatRupiah(amount int64) string {
	if amount == 0 {
		return "Rp0"
	}

	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := strconv.FormatInt(amount, 10)
	result := make([]byte, 0, len(str)+len(str)/3)

	for i := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result = append(result, '.')
		}
		result = append(result, str[i])
	}

	if negative {
		return "Rp-" + string(result)
	}

	return "Rp" + string(result)
}
