package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUsageFoldsStock(t *testing.T) {
	seed := drugSeed{
		Name: "Paracetamol 500mg", ReorderLevel: 100, ReorderQuantity: 300,
		BaseDemand: 40, WeekendFactor: 0.7, RainyFactor: 1.4, Noise: 6,
	}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	records := generateUsage(seed, 1, start, 180, rand.New(rand.NewSource(1)))
	require.Len(t, records, 180)

	assert.Equal(t, seed.ReorderQuantity, records[0].OpeningStock)
	for i, rec := range records {
		assert.GreaterOrEqual(t, rec.ClosingStock, 0.0)
		assert.GreaterOrEqual(t, rec.QuantityUsed, 0.0)
		if i > 0 {
			prev := records[i-1]
			opening := prev.ClosingStock
			if opening <= seed.ReorderLevel {
				opening += seed.ReorderQuantity
			}
			assert.Equal(t, opening, rec.OpeningStock, "day %d", i)
		}
	}
}

func TestGenerateUsageWeekendDip(t *testing.T) {
	// No noise so the calendar factors are exact.
	seed := drugSeed{ReorderLevel: 1000, ReorderQuantity: 100000, BaseDemand: 40, WeekendFactor: 0.5, RainyFactor: 1.0}
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // a Monday, dry season

	records := generateUsage(seed, 1, start, 7, rand.New(rand.NewSource(1)))
	require.Len(t, records, 7)

	for i := 0; i < 5; i++ {
		assert.Equal(t, 40.0, records[i].QuantityUsed)
	}
	assert.Equal(t, 20.0, records[5].QuantityUsed) // Saturday
	assert.Equal(t, 20.0, records[6].QuantityUsed) // Sunday
}

func TestGenerateUsageRainySeasonLift(t *testing.T) {
	seed := drugSeed{ReorderLevel: 1000, ReorderQuantity: 100000, BaseDemand: 10, WeekendFactor: 1.0, RainyFactor: 1.5}

	dry := generateUsage(seed, 1, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), 1, rand.New(rand.NewSource(1)))
	rainy := generateUsage(seed, 1, time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC), 1, rand.New(rand.NewSource(1)))

	assert.Equal(t, 10.0, dry[0].QuantityUsed)
	assert.Equal(t, 15.0, rainy[0].QuantityUsed)
}

func TestGenerateUsageDeterministic(t *testing.T) {
	seed := defaultCatalog[0]
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	a := generateUsage(seed, 1, start, 30, rand.New(rand.NewSource(7)))
	b := generateUsage(seed, 1, start, 30, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}

func TestIsRainyMonth(t *testing.T) {
	assert.True(t, isRainyMonth(time.April))
	assert.True(t, isRainyMonth(time.November))
	assert.False(t, isRainyMonth(time.August))
	assert.False(t, isRainyMonth(time.December))
}
