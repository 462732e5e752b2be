package forecast

import (
	"math"
	"time"
)

// Feature column names, matching what the training job feeds the regressor.
const (
	featDayOfWeek       = "day_of_week"
	featDayOfMonth      = "day_of_month"
	featMonth           = "month"
	featWeekOfMonth     = "week_of_month"
	featIsWeekend       = "is_weekend"
	featIsMonthEnd      = "is_month_end"
	featIsRainySeason   = "is_rainy_season"
	featUsageLag1       = "usage_lag_1"
	featUsageLag3       = "usage_lag_3"
	featUsageLag7       = "usage_lag_7"
	featUsageLag14      = "usage_lag_14"
	featUsageMean7d     = "usage_mean_7d"
	featUsageStd7d      = "usage_std_7d"
	featUsageMean14d    = "usage_mean_14d"
	featUsageStd14d     = "usage_std_14d"
	featStockLevelRatio = "stock_level_ratio"
)

const (
	// FeatureWindowDays is the usage lookback the feature vector is built from.
	FeatureWindowDays = 14

	// defaultUsage is the flat baseline substituted when a drug has no
	// recorded history, so lag and rolling math never runs on an empty series.
	defaultUsage = 30.0
)

// FeatureVector is the fixed-shape input to a trained model. Built fresh per
// (drug, target date); never persisted.
type FeatureVector struct {
	DayOfWeek       float64
	DayOfMonth      float64
	Month           float64
	WeekOfMonth     float64
	IsWeekend       float64
	IsMonthEnd      float64
	IsRainySeason   float64
	UsageLag1       float64
	UsageLag3       float64
	UsageLag7       float64
	UsageLag14      float64
	UsageMean7d     float64
	UsageStd7d      float64
	UsageMean14d    float64
	UsageStd14d     float64
	StockLevelRatio float64
}

// Map returns the vector keyed by feature column name.
func (fv FeatureVector) Map() map[string]float64 {
	return map[string]float64{
		featDayOfWeek:       fv.DayOfWeek,
		featDayOfMonth:      fv.DayOfMonth,
		featMonth:           fv.Month,
		featWeekOfMonth:     fv.WeekOfMonth,
		featIsWeekend:       fv.IsWeekend,
		featIsMonthEnd:      fv.IsMonthEnd,
		featIsRainySeason:   fv.IsRainySeason,
		featUsageLag1:       fv.UsageLag1,
		featUsageLag3:       fv.UsageLag3,
		featUsageLag7:       fv.UsageLag7,
		featUsageLag14:      fv.UsageLag14,
		featUsageMean7d:     fv.UsageMean7d,
		featUsageStd7d:      fv.UsageStd7d,
		featUsageMean14d:    fv.UsageMean14d,
		featUsageStd14d:     fv.UsageStd14d,
		featStockLevelRatio: fv.StockLevelRatio,
	}
}

// FeatureBuilder turns a target date plus recent usage into a FeatureVector.
// Pure; it never touches a store.
type FeatureBuilder struct{}

func NewFeatureBuilder() *FeatureBuilder {
	return &FeatureBuilder{}
}

// Build computes the feature vector for a target date. usage is the drug's
// quantity_used series ordered most-recent-first; it may be shorter than the
// feature window or empty.
func (b *FeatureBuilder) Build(target time.Time, usage []float64) FeatureVector {
	series := PadUsage(usage)

	dow := weekdayIndex(target)
	day := target.Day()
	month := int(target.Month())

	fv := FeatureVector{
		DayOfWeek:       float64(dow),
		DayOfMonth:      float64(day),
		Month:           float64(month),
		WeekOfMonth:     float64((day-1)/7 + 1),
		UsageLag1:       lag(series, 1),
		UsageLag3:       lag(series, 3),
		UsageLag7:       lag(series, 7),
		UsageLag14:      lag(series, 14),
		UsageMean7d:     mean(series[:7]),
		UsageStd7d:      std(series[:7]),
		UsageMean14d:    mean(series[:14]),
		UsageStd14d:     std(series[:14]),
		StockLevelRatio: 1.0,
	}

	if dow >= 5 {
		fv.IsWeekend = 1
	}
	if day > 25 {
		fv.IsMonthEnd = 1
	}
	if isRainySeason(month) {
		fv.IsRainySeason = 1
	}

	return fv
}

// PadUsage normalizes a most-recent-first usage series to the feature window
// length: an empty series becomes a flat baseline, a short one is padded with
// the mean of the available records. The input slice is not modified.
func PadUsage(usage []float64) []float64 {
	series := make([]float64, 0, FeatureWindowDays)
	series = append(series, usage...)

	if len(series) == 0 {
		for i := 0; i < FeatureWindowDays; i++ {
			series = append(series, defaultUsage)
		}
		return series
	}

	fill := mean(series)
	for len(series) < FeatureWindowDays {
		series = append(series, fill)
	}

	return series
}

// weekdayIndex maps time.Weekday to the Monday=0..Sunday=6 convention the
// models were trained with.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// isRainySeason reports whether a month falls in the domain's fixed rainy
// calendar. Not configurable.
func isRainySeason(month int) bool {
	switch month {
	case 4, 5, 6, 7, 9, 10, 11:
		return true
	}
	return false
}

// lag returns the k-th most recent value (1-indexed).
func lag(series []float64, k int) float64 {
	if k < 1 || k > len(series) {
		return defaultUsage
	}
	return series[k-1]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// std is the population standard deviation.
func std(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)))
}
