package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsageSource struct {
	records  []domain.UsageRecord
	stock    map[int64]float64
	usageErr error
	stockErr error

	usageCalls int
	stockCalls int
}

func (s *stubUsageSource) GetRecentUsageAll(_ context.Context, _ int) ([]domain.UsageRecord, error) {
	s.usageCalls++
	return s.records, s.usageErr
}

func (s *stubUsageSource) GetAllCurrentStock(_ context.Context) (map[int64]float64, error) {
	s.stockCalls++
	return s.stock, s.stockErr
}

func TestBatchCoordinatorPartitionsPerDrug(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
	}

	// Bulk result ordered (drug_id, date DESC), the way the repository
	// returns it.
	source := &stubUsageSource{
		records: []domain.UsageRecord{
			{DrugID: 1, Date: day(0), QuantityUsed: 10},
			{DrugID: 1, Date: day(1), QuantityUsed: 11},
			{DrugID: 1, Date: day(2), QuantityUsed: 12},
			{DrugID: 2, Date: day(0), QuantityUsed: 7},
			{DrugID: 2, Date: day(1), QuantityUsed: 8},
		},
		stock: map[int64]float64{1: 100, 2: 40},
	}

	snap, err := NewBatchCoordinator(source).Collect(context.Background(), 30)
	require.NoError(t, err)

	// Exactly two bulk queries, regardless of drug count.
	assert.Equal(t, 1, source.usageCalls)
	assert.Equal(t, 1, source.stockCalls)

	assert.Equal(t, []float64{10, 11, 12}, snap.UsageValues(1))
	assert.Equal(t, []float64{7, 8}, snap.UsageValues(2))
	assert.Empty(t, snap.UsageValues(3))

	// Most-recent-first order survives partitioning.
	records := snap.Usage[1]
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].Date.Before(records[i-1].Date))
	}

	assert.InDelta(t, 100.0, snap.Stock[1], 1e-9)
}

func TestBatchCoordinatorUsageFetchFailureIsFatal(t *testing.T) {
	source := &stubUsageSource{usageErr: errors.New("connection refused")}

	_, err := NewBatchCoordinator(source).Collect(context.Background(), 30)
	assert.Error(t, err)
}

func TestBatchCoordinatorStockFetchFailureDegrades(t *testing.T) {
	source := &stubUsageSource{
		records:  []domain.UsageRecord{{DrugID: 1, QuantityUsed: 10}},
		stockErr: errors.New("connection refused"),
	}

	snap, err := NewBatchCoordinator(source).Collect(context.Background(), 30)
	require.NoError(t, err)

	// Forecasts can still be produced; stock just reads as zero.
	assert.Equal(t, []float64{10}, snap.UsageValues(1))
	assert.Empty(t, snap.Stock)
}

func TestBatchCoordinatorDefaultWindow(t *testing.T) {
	source := &stubUsageSource{}

	_, err := NewBatchCoordinator(source).Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, source.usageCalls)
}
