package forecast

import (
	"fmt"
	"math"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
)

const (
	// daysOfStockSentinel stands in for "effectively unbounded" when the
	// forecast predicts no demand at all.
	daysOfStockSentinel = 999

	// displayDaysCap bounds the days-of-stock shown to users; the comparison
	// logic always runs on the unclamped value.
	displayDaysCap = 30

	criticalDays = 3
	warningDays  = 7
)

// RecommendationEngine classifies stock health from current stock, the
// reorder level and the forecast.
type RecommendationEngine struct{}

func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{}
}

// Recommend classifies one drug's position. The reorder-level check dominates:
// stock at or below the reorder level is urgent no matter how ample the
// days-of-stock figure looks.
func (re *RecommendationEngine) Recommend(currentStock, reorderLevel float64, points []domain.AdaptiveForecastPoint) domain.Recommendation {
	var totalPredicted float64
	for _, p := range points {
		totalPredicted += p.PredictedDemand
	}

	daysOfStock := float64(daysOfStockSentinel)
	if totalPredicted > 0 {
		daysOfStock = currentStock / (totalPredicted / 7)
	}

	switch {
	case currentStock <= reorderLevel:
		return domain.Recommendation{
			Status:      domain.StatusUrgent,
			Message:     "URGENT: Stock at or below reorder level. Order immediately!",
			DaysOfStock: daysOfStock,
		}
	case daysOfStock <= criticalDays:
		return domain.Recommendation{
			Status:      domain.StatusCritical,
			Message:     fmt.Sprintf("Critical: Stock will last only %.0f days. Order now!", daysOfStock),
			DaysOfStock: daysOfStock,
		}
	case daysOfStock <= warningDays:
		return domain.Recommendation{
			Status:      domain.StatusWarning,
			Message:     fmt.Sprintf("Warning: Stock will last %.0f days. Consider ordering soon.", daysOfStock),
			DaysOfStock: daysOfStock,
		}
	default:
		display := math.Min(daysOfStock, displayDaysCap)
		return domain.Recommendation{
			Status:      domain.StatusOK,
			Message:     fmt.Sprintf("Good: Stock sufficient for %.0f days.", display),
			DaysOfStock: display,
		}
	}
}
