package forecast

import (
	"context"
	"fmt"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// UsageSource is the slice of the usage ledger the batch path needs: one
// bulk query for recent usage across all drugs and one for latest stock.
type UsageSource interface {
	GetRecentUsageAll(ctx context.Context, days int) ([]domain.UsageRecord, error)
	GetAllCurrentStock(ctx context.Context) (map[int64]float64, error)
}

// BatchSnapshot is the in-memory partition of the two bulk fetches.
// Usage slices are most-recent-first per drug; lag features depend on that
// ordering.
type BatchSnapshot struct {
	Usage map[int64][]domain.UsageRecord
	Stock map[int64]float64
}

// UsageValues returns the quantity_used series for a drug, most-recent-first.
func (s *BatchSnapshot) UsageValues(drugID int64) []float64 {
	records := s.Usage[drugID]

	values := make([]float64, 0, len(records))
	for _, rec := range records {
		values = append(values, rec.QuantityUsed)
	}

	return values
}

// BatchCoordinator amortizes data retrieval for the forecast-all path.
// Instead of one query per drug per day it issues exactly two bulk queries
// and partitions the results in memory.
type BatchCoordinator struct {
	source UsageSource
}

func NewBatchCoordinator(source UsageSource) *BatchCoordinator {
	return &BatchCoordinator{source: source}
}

// Collect fetches a trailing usage window and the latest stock for every
// drug. A failed stock fetch degrades to an empty stock map so forecasts are
// still produced; a failed usage fetch is fatal since there is nothing to
// forecast from.
func (c *BatchCoordinator) Collect(ctx context.Context, days int) (*BatchSnapshot, error) {
	if days <= 0 {
		days = TrendWindowDays
	}

	records, err := c.source.GetRecentUsageAll(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("bulk usage fetch: %w", err)
	}

	snap := &BatchSnapshot{
		Usage: make(map[int64][]domain.UsageRecord),
		Stock: make(map[int64]float64),
	}

	// Records arrive ordered (drug_id, date DESC); appending preserves the
	// most-recent-first order per drug.
	for _, rec := range records {
		snap.Usage[rec.DrugID] = append(snap.Usage[rec.DrugID], rec)
	}

	stock, err := c.source.GetAllCurrentStock(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("bulk stock fetch failed, batch will report zero stock")
	} else {
		snap.Stock = stock
	}

	return snap, nil
}
