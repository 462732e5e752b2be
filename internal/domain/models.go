// backend-go/internal/domain/models.go
package domain

import "time"

// Drug represents one catalog entry. Catalog rows are owned by the external
// inventory system and treated as immutable within a forecasting cycle.
type Drug struct {
	ID              int64   `json:"id" db:"id"`
	Name            string  `json:"name" db:"name"`
	Unit            string  `json:"unit" db:"unit"`
	ReorderLevel    float64 `json:"reorder_level" db:"reorder_level"`
	ReorderQuantity float64 `json:"reorder_quantity" db:"reorder_quantity"`
}

// UsageRecord is one day of the append-only consumption ledger. There is at
// most one record per (drug_id, date); date ordering matters because lag and
// rolling features are computed from it.
type UsageRecord struct {
	DrugID       int64     `json:"drug_id" db:"drug_id"`
	Date         time.Time `json:"date" db:"date"`
	QuantityUsed float64   `json:"quantity_used" db:"quantity_used"`
	OpeningStock float64   `json:"opening_stock" db:"opening_stock"`
	ClosingStock float64   `json:"closing_stock" db:"closing_stock"`
	StockoutFlag bool      `json:"stockout_flag" db:"stockout_flag"`
}

// ForecastPoint is the raw model output for one day, clamped to >= 0.
type ForecastPoint struct {
	Date            time.Time `json:"date"`
	PredictedDemand float64   `json:"predicted_demand"`
	DayOfWeek       string    `json:"day_of_week"`
}

// AdaptiveForecastPoint is a corrected prediction. BasePrediction is the raw
// model output; PredictedDemand carries the trend and seasonal corrections
// so callers can see exactly what adjustment was applied.
type AdaptiveForecastPoint struct {
	Date            time.Time `json:"date"`
	PredictedDemand float64   `json:"predicted_demand"`
	DayOfWeek       string    `json:"day_of_week"`
	BasePrediction  float64   `json:"base_prediction"`
	TrendFactor     float64   `json:"trend_factor"`
	SeasonalFactor  float64   `json:"seasonal_factor"`
	Adjustment      float64   `json:"adjustment_applied"`
}

// Recommendation classifies stock health for one drug.
type Recommendation struct {
	Status      RecommendationStatus `json:"status"`
	Message     string               `json:"message"`
	DaysOfStock float64              `json:"days_of_stock"`
}

// DrugForecast is the full forecast response for one drug.
type DrugForecast struct {
	DrugID         int64                   `json:"drug_id"`
	DrugName       string                  `json:"drug_name"`
	Unit           string                  `json:"unit"`
	CurrentStock   float64                 `json:"current_stock"`
	ReorderLevel   float64                 `json:"reorder_level"`
	Forecasts      []AdaptiveForecastPoint `json:"forecasts"`
	TotalPredicted float64                 `json:"total_predicted_7_days"`
	Recommendation Recommendation          `json:"recommendation"`
	GeneratedAt    time.Time               `json:"generated_at"`
}

// ModelMetrics are the evaluation numbers recorded by the training job.
type ModelMetrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

// ModelInfo describes one loaded model for the /models listing.
type ModelInfo struct {
	DrugID    int64        `json:"drug_id"`
	DrugName  string       `json:"drug_name"`
	Unit      string       `json:"unit"`
	TrainedAt time.Time    `json:"trained_at"`
	Metrics   ModelMetrics `json:"metrics"`
}
