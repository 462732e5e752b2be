package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrendFactorRisingUsage(t *testing.T) {
	// Recent week roughly doubled vs the prior week: raw ratio ~2.14 clamps
	// to 1.5, smoothing lands at 0.7*1.5 + 0.3 = 1.35.
	usage := []float64{10, 12, 11, 13, 9, 14, 10, 5, 5, 6, 5, 5, 6, 5}

	factor := NewTrendAdjuster().Factor(usage)

	assert.InDelta(t, 1.35, factor, 1e-9)
}

func TestTrendFactorInsufficientData(t *testing.T) {
	usage := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}

	assert.Equal(t, 1.0, NewTrendAdjuster().Factor(usage))
	assert.Equal(t, 1.0, NewTrendAdjuster().Factor(nil))
}

func TestTrendFactorZeroOlderWeek(t *testing.T) {
	usage := []float64{10, 10, 10, 10, 10, 10, 10, 0, 0, 0, 0, 0, 0, 0}

	assert.Equal(t, 1.0, NewTrendAdjuster().Factor(usage))
}

func TestTrendFactorAlwaysBounded(t *testing.T) {
	a := NewTrendAdjuster()

	cases := [][]float64{
		// Extreme spike.
		{1000, 1000, 1000, 1000, 1000, 1000, 1000, 1, 1, 1, 1, 1, 1, 1},
		// Extreme collapse.
		{0, 0, 0, 0, 0, 0, 1, 1000, 1000, 1000, 1000, 1000, 1000, 1000},
		// Flat.
		{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	}

	for _, usage := range cases {
		factor := a.Factor(usage)
		assert.GreaterOrEqual(t, factor, 0.5)
		assert.LessOrEqual(t, factor, 1.5)
	}
}

func TestTrendFactorFlatUsageIsNeutral(t *testing.T) {
	usage := []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}

	assert.InDelta(t, 1.0, NewTrendAdjuster().Factor(usage), 1e-9)
}
