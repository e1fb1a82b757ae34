package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertMinutesToDuration(t *testing.T) {
	assert.Equal(t, "2h 5m", ConvertMinutesToDuration(125))
	assert.Equal(t, "3h", ConvertMinutesToDuration(180))
	assert.Equal(t, "45m", ConvertMinutesToDuration(45))
	assert.Equal(t, "0h", ConvertMinutesToDuration(0))
}

func TestFormatRupiah(t *testing.T) {
	formatRequest := func(amount int64, want string) func(t *testing.T) {
		return func(t *testing.T) {
			assert.Equal(t, want, FormatRupiah(amount))
		}
	}

	t.Run("zero", formatRequest(0, "Rp0"))
	t.Run("hundreds", formatRequest(950, "Rp950"))
	t.Run("thousands", formatRequest(1000, "Rp1.000"))
	t.Run("millions", formatRequest(1250000, "Rp1.250.000"))
	t.Run("negative", formatRequest(-45000, "Rp-45.000"))
}

func TestFormatBaggage(t *testing.T) {
	assert.Equal(t, "7kg", FormatBaggage(1, CarryOnKg))
	assert.Equal(t, "30kg", FormatBaggage(2, CheckedKg))
	assert.Equal(t, "-", FormatBaggage(0, CheckedKg))
}
