package forecast

// Trend adjustment compares the last week of usage against the week before
// it and nudges predictions toward the observed momentum.
const (
	// TrendWindowDays is the usage lookback the trend factor is computed from.
	TrendWindowDays = 30

	trendMinRecords = 14
	trendFloor      = 0.5
	trendCeil       = 1.5

	// trendSmoothing blends the raw ratio toward neutral so one noisy week
	// cannot produce an abrupt correction.
	trendSmoothing = 0.7
)

// TrendAdjuster computes a bounded short-term trend correction factor.
// Deterministic given the window; no hidden state.
type TrendAdjuster struct{}

func NewTrendAdjuster() *TrendAdjuster {
	return &TrendAdjuster{}
}

// Factor returns the trend multiplier for a usage window ordered
// most-recent-first. Fewer than 14 records means there is not enough signal
// to compare weeks, so the factor stays neutral rather than erroring.
func (a *TrendAdjuster) Factor(usage []float64) float64 {
	if len(usage) < trendMinRecords {
		return 1.0
	}

	recentAvg := mean(usage[:7])
	olderAvg := mean(usage[7:14])

	if olderAvg == 0 {
		return 1.0
	}

	ratio := recentAvg / olderAvg
	ratio = clamp(ratio, trendFloor, trendCeil)

	return trendSmoothing*ratio + (1-trendSmoothing)*1.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
