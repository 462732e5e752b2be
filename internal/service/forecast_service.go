package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/cache"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/forecast"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// ForecastService wires the stores, the model registry and the forecast
// engine behind the operations the transport layer exposes. It is an
// explicitly constructed object: callers hold a reference and own its
// lifecycle (construct, serve, reload, discard).
type ForecastService struct {
	drugs       repository.DrugRepository
	usage       repository.UsageRepository
	registry    *forecast.Registry
	engine      *forecast.Engine
	seasonal    *forecast.SeasonalAdjuster
	coordinator *forecast.BatchCoordinator
	recommender *forecast.RecommendationEngine
	cache       cache.ForecastCache

	now func() time.Time
}

func NewForecastService(
	drugs repository.DrugRepository,
	usage repository.UsageRepository,
	registry *forecast.Registry,
	engine *forecast.Engine,
	seasonal *forecast.SeasonalAdjuster,
	cacheImpl cache.ForecastCache,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}

	return &ForecastService{
		drugs:       drugs,
		usage:       usage,
		registry:    registry,
		engine:      engine,
		seasonal:    seasonal,
		coordinator: forecast.NewBatchCoordinator(usage),
		recommender: forecast.NewRecommendationEngine(),
		cache:       cacheImpl,
		now:         time.Now,
	}
}

// Forecast produces the full forecast response for one drug: adjusted
// per-day predictions, current stock and a restock recommendation.
func (s *ForecastService) Forecast(ctx context.Context, drugID int64, horizonDays int) (*domain.DrugForecast, error) {
	records, err := s.usage.GetRecentUsage(ctx, drugID, forecast.TrendWindowDays)
	if err != nil {
		return nil, fmt.Errorf("usage window for drug %d: %w", drugID, err)
	}

	points, err := s.engine.ForecastAdaptive(drugID, usageValues(records), horizonDays)
	if err != nil {
		return nil, err
	}

	currentStock, err := s.usage.GetCurrentStock(ctx, drugID)
	if err != nil {
		return nil, fmt.Errorf("current stock for drug %d: %w", drugID, err)
	}

	return s.assembleForecast(drugID, currentStock, points), nil
}

// ForecastDetailed returns the adaptive predictions with their trend and
// seasonal breakdown, for callers that want the explanation rather than the
// recommendation.
func (s *ForecastService) ForecastDetailed(ctx context.Context, drugID int64, horizonDays int) ([]domain.AdaptiveForecastPoint, error) {
	records, err := s.usage.GetRecentUsage(ctx, drugID, forecast.TrendWindowDays)
	if err != nil {
		return nil, fmt.Errorf("usage window for drug %d: %w", drugID, err)
	}

	return s.engine.ForecastAdaptive(drugID, usageValues(records), horizonDays)
}

// ForecastAll runs the batch path for every loaded model. Usage and stock
// come from two bulk fetches; a drug that cannot be forecast is logged and
// skipped so it never blocks the rest of the batch.
func (s *ForecastService) ForecastAll(ctx context.Context, horizonDays int) ([]domain.DrugForecast, error) {
	if forecasts, ok, err := s.cache.GetAll(ctx, horizonDays); err == nil && ok {
		return forecasts, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get failed")
	}

	snap, err := s.coordinator.Collect(ctx, forecast.TrendWindowDays)
	if err != nil {
		return nil, err
	}

	batch := s.engine.ForecastBatch(snap, horizonDays)

	forecasts := make([]domain.DrugForecast, 0, len(batch))
	for _, drugID := range s.registry.DrugIDs() {
		bf, ok := batch[drugID]
		if !ok {
			log.Warn().Int64("drug_id", drugID).Msg("forecast: drug skipped in batch")
			continue
		}

		forecasts = append(forecasts, *s.assembleForecast(drugID, bf.CurrentStock, bf.Points))
	}

	if err := s.cache.SetAll(ctx, horizonDays, forecasts); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set failed")
	}

	return forecasts, nil
}

// ReloadModels atomically swaps in a freshly loaded model set, typically
// after an external training run. Derived state (seasonal factors, cached
// batch responses) is reset so it is recomputed against the new models.
func (s *ForecastService) ReloadModels(ctx context.Context) (int, error) {
	count, err := s.registry.Reload(ctx)
	if err != nil {
		return 0, err
	}

	s.seasonal.Reset()
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidation after reload failed")
	}

	return count, nil
}

// ListModels lists every loaded model with its training metadata.
func (s *ForecastService) ListModels() []domain.ModelInfo {
	return s.registry.Models()
}

// ModelsLoaded returns how many models are currently loaded.
func (s *ForecastService) ModelsLoaded() int {
	return s.registry.Count()
}

func (s *ForecastService) assembleForecast(drugID int64, currentStock float64, points []domain.AdaptiveForecastPoint) *domain.DrugForecast {
	// Catalog fallbacks keep a forecast usable even when the drug row is
	// missing; the model existing is what matters.
	name := fmt.Sprintf("Drug %d", drugID)
	unit := "units"
	reorderLevel := 50.0
	if drug, ok := s.registry.Drug(drugID); ok {
		name = drug.Name
		unit = drug.Unit
		reorderLevel = drug.ReorderLevel
	}

	var total float64
	for i, p := range points {
		if i >= 7 {
			break
		}
		total += p.PredictedDemand
	}

	return &domain.DrugForecast{
		DrugID:         drugID,
		DrugName:       name,
		Unit:           unit,
		CurrentStock:   currentStock,
		ReorderLevel:   reorderLevel,
		Forecasts:      points,
		TotalPredicted: total,
		Recommendation: s.recommender.Recommend(currentStock, reorderLevel, points),
		GeneratedAt:    s.now(),
	}
}

func usageValues(records []domain.UsageRecord) []float64 {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		values = append(values, rec.QuantityUsed)
	}

	return values
}
