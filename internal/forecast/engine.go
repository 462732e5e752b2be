package forecast

import (
	"math"
	"sync"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
)

// DefaultHorizonDays is how many days ahead a forecast covers unless the
// caller asks otherwise.
const DefaultHorizonDays = 7

// batchWorkerCount bounds concurrency on the batch path.
const batchWorkerCount = 4

// Engine orchestrates feature building, the model registry and the two
// correction layers into a horizon of adjusted predictions.
type Engine struct {
	registry *Registry
	features *FeatureBuilder
	trend    *TrendAdjuster
	seasonal *SeasonalAdjuster

	now func() time.Time

	// batchSeasonal switches the seasonal correction on for the batch path.
	// The batch path historically held it at neutral to keep forecast-all
	// latency flat across hundreds of drugs; the switch makes that tradeoff
	// explicit instead of hard-coded.
	batchSeasonal bool
}

type EngineOption func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithBatchSeasonal enables per-day seasonal correction on the batch path.
func WithBatchSeasonal(enabled bool) EngineOption {
	return func(e *Engine) { e.batchSeasonal = enabled }
}

func NewEngine(registry *Registry, seasonal *SeasonalAdjuster, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: registry,
		features: NewFeatureBuilder(),
		trend:    NewTrendAdjuster(),
		seasonal: seasonal,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// startDate is tomorrow at midnight; forecasts never cover today.
func (e *Engine) startDate() time.Time {
	now := e.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

func normalizeHorizon(horizon int) int {
	if horizon <= 0 {
		return DefaultHorizonDays
	}
	return horizon
}

// Forecast produces raw per-day predictions for one drug. usage is the
// drug's quantity_used series ordered most-recent-first; only the feature
// window is consumed.
func (e *Engine) Forecast(drugID int64, usage []float64, horizon int) ([]domain.ForecastPoint, error) {
	horizon = normalizeHorizon(horizon)

	series := featureWindow(usage)
	start := e.startDate()

	points := make([]domain.ForecastPoint, 0, horizon)
	for i := 0; i < horizon; i++ {
		date := start.AddDate(0, 0, i)

		fv := e.features.Build(date, series)
		raw, err := e.registry.Predict(drugID, fv)
		if err != nil {
			return nil, err
		}

		points = append(points, domain.ForecastPoint{
			Date:            date,
			PredictedDemand: round1(math.Max(0, raw)),
			DayOfWeek:       date.Weekday().String(),
		})
	}

	return points, nil
}

// ForecastAdaptive produces corrected predictions for one drug. usage should
// be the trend window (30 days, most-recent-first); the feature and seasonal
// windows are prefixes of it. The trend factor is computed once per request,
// the seasonal factor per day since it depends on the day's weekday.
func (e *Engine) ForecastAdaptive(drugID int64, usage []float64, horizon int) ([]domain.AdaptiveForecastPoint, error) {
	horizon = normalizeHorizon(horizon)

	if !e.registry.Has(drugID) {
		return nil, modelNotFound(drugID)
	}

	series := featureWindow(usage)
	trendFactor := e.trend.Factor(usage)
	seasonalWindow := prefix(usage, SeasonalWindowDays)
	start := e.startDate()

	points := make([]domain.AdaptiveForecastPoint, 0, horizon)
	for i := 0; i < horizon; i++ {
		date := start.AddDate(0, 0, i)

		fv := e.features.Build(date, series)
		raw, err := e.registry.Predict(drugID, fv)
		if err != nil {
			return nil, err
		}
		raw = math.Max(0, raw)

		seasonalFactor := e.seasonal.Factor(drugID, date, seasonalWindow)
		adjusted := math.Max(0, raw*trendFactor*seasonalFactor)

		points = append(points, domain.AdaptiveForecastPoint{
			Date:            date,
			PredictedDemand: round1(adjusted),
			DayOfWeek:       date.Weekday().String(),
			BasePrediction:  round1(raw),
			TrendFactor:     round2(trendFactor),
			SeasonalFactor:  round2(seasonalFactor),
			Adjustment:      round2(trendFactor * seasonalFactor),
		})
	}

	return points, nil
}

// BatchForecast is the batch-path result for one drug.
type BatchForecast struct {
	Points       []domain.AdaptiveForecastPoint
	CurrentStock float64
}

// ForecastBatch runs the adaptive forecast for every loaded model off a
// pre-collected snapshot, touching no store. The trend factor comes from the
// cached window; the seasonal factor stays neutral unless batchSeasonal is
// set. Raw predictions are identical to the single-drug path for identical
// usage snapshots.
//
// Drugs are processed by a small worker pool. Each drug's forecast is
// independent, so the result does not depend on scheduling.
func (e *Engine) ForecastBatch(snap *BatchSnapshot, horizon int) map[int64]BatchForecast {
	horizon = normalizeHorizon(horizon)
	start := e.startDate()
	drugIDs := e.registry.DrugIDs()

	workerCount := batchWorkerCount
	if len(drugIDs) < workerCount {
		workerCount = len(drugIDs)
	}

	results := make(map[int64]BatchForecast, len(drugIDs))
	if workerCount == 0 {
		return results
	}

	jobChan := make(chan int64, len(drugIDs))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for drugID := range jobChan {
				forecast, ok := e.forecastFromSnapshot(snap, drugID, start, horizon)
				if !ok {
					continue
				}
				mu.Lock()
				results[drugID] = forecast
				mu.Unlock()
			}
		}()
	}

	for _, drugID := range drugIDs {
		jobChan <- drugID
	}
	close(jobChan)
	wg.Wait()

	return results
}

// forecastFromSnapshot computes one drug's adaptive forecast off the batch
// snapshot. Returns false when the model vanished in a concurrent reload.
func (e *Engine) forecastFromSnapshot(snap *BatchSnapshot, drugID int64, start time.Time, horizon int) (BatchForecast, bool) {
	usage := snap.UsageValues(drugID)
	series := featureWindow(usage)
	trendFactor := e.trend.Factor(usage)
	seasonalWindow := prefix(usage, SeasonalWindowDays)

	points := make([]domain.AdaptiveForecastPoint, 0, horizon)
	for i := 0; i < horizon; i++ {
		date := start.AddDate(0, 0, i)

		fv := e.features.Build(date, series)
		raw, err := e.registry.Predict(drugID, fv)
		if err != nil {
			return BatchForecast{}, false
		}
		raw = math.Max(0, raw)

		seasonalFactor := 1.0
		if e.batchSeasonal {
			seasonalFactor = e.seasonal.Factor(drugID, date, seasonalWindow)
		}
		adjusted := math.Max(0, raw*trendFactor*seasonalFactor)

		points = append(points, domain.AdaptiveForecastPoint{
			Date:            date,
			PredictedDemand: round1(adjusted),
			DayOfWeek:       date.Weekday().String(),
			BasePrediction:  round1(raw),
			TrendFactor:     round2(trendFactor),
			SeasonalFactor:  round2(seasonalFactor),
			Adjustment:      round2(trendFactor * seasonalFactor),
		})
	}

	return BatchForecast{
		Points:       points,
		CurrentStock: snap.Stock[drugID],
	}, true
}

// featureWindow trims a usage series to the feature lookback.
func featureWindow(usage []float64) []float64 {
	return prefix(usage, FeatureWindowDays)
}

func prefix(values []float64, n int) []float64 {
	if len(values) > n {
		return values[:n]
	}
	return values
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
