package forecast

import (
	"testing"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

// weekOfDemand builds 7 adaptive points totalling the given demand.
func weekOfDemand(total float64) []domain.AdaptiveForecastPoint {
	points := make([]domain.AdaptiveForecastPoint, 7)
	for i := range points {
		points[i] = domain.AdaptiveForecastPoint{PredictedDemand: total / 7}
	}

	return points
}

func TestRecommendUrgentDominates(t *testing.T) {
	re := NewRecommendationEngine()

	// Stock 40 vs reorder level 50: urgent even though days-of-stock is 4.
	rec := re.Recommend(40, 50, weekOfDemand(70))

	assert.Equal(t, domain.StatusUrgent, rec.Status)
	assert.InDelta(t, 4.0, rec.DaysOfStock, 1e-9)
	assert.Contains(t, rec.Message, "reorder level")
}

func TestRecommendUrgentEvenWithAmpleDays(t *testing.T) {
	re := NewRecommendationEngine()

	// Tiny demand makes days-of-stock huge, but the reorder check still wins.
	rec := re.Recommend(50, 50, weekOfDemand(0.7))

	assert.Equal(t, domain.StatusUrgent, rec.Status)
	assert.Greater(t, rec.DaysOfStock, 100.0)
}

func TestRecommendCritical(t *testing.T) {
	rec := NewRecommendationEngine().Recommend(25, 10, weekOfDemand(70))

	assert.Equal(t, domain.StatusCritical, rec.Status)
	assert.InDelta(t, 2.5, rec.DaysOfStock, 1e-9)
}

func TestRecommendWarning(t *testing.T) {
	rec := NewRecommendationEngine().Recommend(60, 10, weekOfDemand(70))

	assert.Equal(t, domain.StatusWarning, rec.Status)
	assert.InDelta(t, 6.0, rec.DaysOfStock, 1e-9)
}

func TestRecommendOK(t *testing.T) {
	rec := NewRecommendationEngine().Recommend(200, 50, weekOfDemand(70))

	assert.Equal(t, domain.StatusOK, rec.Status)
	assert.InDelta(t, 20.0, rec.DaysOfStock, 1e-9)
	assert.Contains(t, rec.Message, "20 days")
}

func TestRecommendOKDisplayCappedAt30(t *testing.T) {
	rec := NewRecommendationEngine().Recommend(10000, 50, weekOfDemand(70))

	assert.Equal(t, domain.StatusOK, rec.Status)
	assert.InDelta(t, 30.0, rec.DaysOfStock, 1e-9)
	assert.Contains(t, rec.Message, "30 days")
}

func TestRecommendZeroDemandSentinel(t *testing.T) {
	rec := NewRecommendationEngine().Recommend(100, 10, nil)

	// No predicted demand means effectively unbounded days of stock.
	assert.Equal(t, domain.StatusOK, rec.Status)
	assert.InDelta(t, 30.0, rec.DaysOfStock, 1e-9)
}
