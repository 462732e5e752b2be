package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock pins "now" to Sunday 2025-03-09, so forecasts start on Monday
// 2025-03-10.
func fixedClock() time.Time {
	return time.Date(2025, time.March, 9, 15, 30, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()

	registry := newTestRegistry(t,
		domain.Drug{ID: 1, Name: "Paracetamol 500mg", Unit: "tablets", ReorderLevel: 50},
		domain.Drug{ID: 2, Name: "Amoxicillin 250mg", Unit: "capsules", ReorderLevel: 30},
	)

	opts = append([]EngineOption{WithClock(fixedClock)}, opts...)
	return NewEngine(registry, NewSeasonalAdjuster(), opts...)
}

func flatUsage(n int, v float64) []float64 {
	usage := make([]float64, n)
	for i := range usage {
		usage[i] = v
	}
	return usage
}

func TestForecastStartsTomorrow(t *testing.T) {
	e := newTestEngine(t)

	points, err := e.Forecast(1, flatUsage(14, 10), 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, "Monday", points[0].DayOfWeek)
	assert.Equal(t, time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), points[2].Date)
}

func TestForecastRawValues(t *testing.T) {
	e := newTestEngine(t)

	// The test model predicts the 7-day usage mean.
	points, err := e.Forecast(1, flatUsage(14, 10), 7)
	require.NoError(t, err)

	for _, p := range points {
		assert.InDelta(t, 10.0, p.PredictedDemand, 1e-9)
	}
}

func TestForecastUnknownDrug(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Forecast(99, flatUsage(14, 10), 7)
	assert.True(t, errors.Is(err, ErrModelNotFound))

	_, err = e.ForecastAdaptive(99, flatUsage(30, 10), 7)
	assert.True(t, errors.Is(err, ErrModelNotFound))
}

func TestForecastDefaultHorizon(t *testing.T) {
	e := newTestEngine(t)

	points, err := e.Forecast(1, flatUsage(14, 10), 0)
	require.NoError(t, err)
	assert.Len(t, points, DefaultHorizonDays)
}

func TestForecastAdaptiveNonNegative(t *testing.T) {
	e := newTestEngine(t)

	// Rising usage pushes the trend factor up; everything must stay >= 0.
	usage := append(flatUsage(7, 40), flatUsage(23, 5)...)
	points, err := e.ForecastAdaptive(1, usage, 7)
	require.NoError(t, err)

	for _, p := range points {
		assert.GreaterOrEqual(t, p.PredictedDemand, 0.0)
		assert.GreaterOrEqual(t, p.BasePrediction, 0.0)
		assert.GreaterOrEqual(t, p.TrendFactor, 0.5)
		assert.LessOrEqual(t, p.TrendFactor, 1.5)
		assert.GreaterOrEqual(t, p.SeasonalFactor, 0.8)
		assert.LessOrEqual(t, p.SeasonalFactor, 1.2)
	}
}

func TestForecastAdaptiveTrendAppliedOncePerRequest(t *testing.T) {
	e := newTestEngine(t)

	usage := append([]float64{10, 12, 11, 13, 9, 14, 10}, []float64{5, 5, 6, 5, 5, 6, 5}...)
	usage = append(usage, flatUsage(16, 5)...)

	points, err := e.ForecastAdaptive(1, usage, 7)
	require.NoError(t, err)

	for _, p := range points {
		assert.InDelta(t, 1.35, p.TrendFactor, 1e-9)
	}
}

func TestForecastAdaptiveShortHistoryDegradesToRaw(t *testing.T) {
	e := newTestEngine(t)

	// 10 records: both adjusters fall back to neutral, so the adjusted
	// prediction equals the raw one.
	points, err := e.ForecastAdaptive(1, flatUsage(10, 12), 7)
	require.NoError(t, err)

	for _, p := range points {
		assert.Equal(t, 1.0, p.TrendFactor)
		assert.Equal(t, 1.0, p.SeasonalFactor)
		assert.Equal(t, p.BasePrediction, p.PredictedDemand)
	}
}

func TestForecastDeterministic(t *testing.T) {
	e := newTestEngine(t)

	usage := flatUsage(30, 11)
	first, err := e.ForecastAdaptive(1, usage, 7)
	require.NoError(t, err)
	second, err := e.ForecastAdaptive(1, usage, 7)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestForecastBatchMatchesSingleRawPredictions(t *testing.T) {
	e := newTestEngine(t)

	usage := flatUsage(30, 10)
	records := make([]domain.UsageRecord, len(usage))
	base := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	for i, v := range usage {
		records[i] = domain.UsageRecord{DrugID: 1, Date: base.AddDate(0, 0, -i), QuantityUsed: v}
	}

	snap := &BatchSnapshot{
		Usage: map[int64][]domain.UsageRecord{1: records, 2: records},
		Stock: map[int64]float64{1: 120},
	}

	single, err := e.ForecastAdaptive(1, usage, 7)
	require.NoError(t, err)

	batch := e.ForecastBatch(snap, 7)
	require.Contains(t, batch, int64(1))
	require.Len(t, batch[1].Points, 7)

	for i := range single {
		assert.Equal(t, single[i].BasePrediction, batch[1].Points[i].BasePrediction)
		assert.Equal(t, single[i].TrendFactor, batch[1].Points[i].TrendFactor)
		// Batch holds the seasonal factor neutral by default.
		assert.Equal(t, 1.0, batch[1].Points[i].SeasonalFactor)
	}

	assert.InDelta(t, 120.0, batch[1].CurrentStock, 1e-9)
	assert.InDelta(t, 0.0, batch[2].CurrentStock, 1e-9)
}

func TestForecastBatchCoversAllLoadedModels(t *testing.T) {
	e := newTestEngine(t)

	// Drug 2 has no usage at all: it still gets a forecast off the default
	// baseline series.
	snap := &BatchSnapshot{
		Usage: map[int64][]domain.UsageRecord{},
		Stock: map[int64]float64{},
	}

	batch := e.ForecastBatch(snap, 7)
	require.Len(t, batch, 2)
	for _, bf := range batch {
		require.Len(t, bf.Points, 7)
		for _, p := range bf.Points {
			assert.GreaterOrEqual(t, p.PredictedDemand, 0.0)
			assert.Equal(t, 1.0, p.TrendFactor)
		}
	}
}

func TestForecastBatchSeasonalOptIn(t *testing.T) {
	e := newTestEngine(t, WithBatchSeasonal(true))

	records := make([]domain.UsageRecord, 0, SeasonalWindowDays)
	for i, v := range mondaySpikeWindow() {
		records = append(records, domain.UsageRecord{DrugID: 1, QuantityUsed: v, Date: fixedClock().AddDate(0, 0, -i)})
	}

	snap := &BatchSnapshot{
		Usage: map[int64][]domain.UsageRecord{1: records},
		Stock: map[int64]float64{},
	}

	batch := e.ForecastBatch(snap, 7)
	require.Contains(t, batch, int64(1))

	// First forecast day is a Monday, the spiked weekday.
	assert.InDelta(t, 1.2, batch[1].Points[0].SeasonalFactor, 1e-9)
}
