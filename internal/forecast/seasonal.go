package forecast

import (
	"sync"
	"time"
)

const (
	// SeasonalWindowDays is the usage lookback for weekday patterns: three
	// full weeks, so most weekdays appear three times.
	SeasonalWindowDays = 21

	seasonalMinRecords = 14
	seasonalMinSamples = 2
	seasonalFloor      = 0.8
	seasonalCeil       = 1.2
)

type seasonalKey struct {
	drugID  int64
	weekday int
}

// SeasonalAdjuster computes a bounded day-of-week correction factor.
//
// Computed factors are kept in a process-lifetime cache keyed by
// (drug, weekday). There is deliberately no eviction: weekday patterns move
// slowly and the cache is reset explicitly on model reload. Concurrent
// requests may race to populate the same key; both compute the same
// deterministic value, so last-write-wins.
type SeasonalAdjuster struct {
	mu    sync.RWMutex
	cache map[seasonalKey]float64
}

func NewSeasonalAdjuster() *SeasonalAdjuster {
	return &SeasonalAdjuster{cache: make(map[seasonalKey]float64)}
}

// Factor returns the seasonal multiplier for a drug on a target date, given
// a usage window ordered most-recent-first. Short history degrades to a
// neutral factor, uncached so it recomputes once data arrives.
func (a *SeasonalAdjuster) Factor(drugID int64, target time.Time, usage []float64) float64 {
	if len(usage) < seasonalMinRecords {
		return 1.0
	}

	dow := weekdayIndex(target)

	key := seasonalKey{drugID: drugID, weekday: dow}
	a.mu.RLock()
	cached, ok := a.cache[key]
	a.mu.RUnlock()
	if ok {
		return cached
	}

	// Stride-7 weekday alignment from the most recent record: usage[0] is
	// yesterday's value, so positions sharing (len-1-i) mod 7 share a weekday.
	var dowUsage []float64
	for i, v := range usage {
		if (len(usage)-1-i)%7 == 6-dow {
			dowUsage = append(dowUsage, v)
		}
	}

	if len(dowUsage) < seasonalMinSamples {
		return 1.0
	}

	overallAvg := mean(usage)
	if overallAvg <= 0 {
		return 1.0
	}

	factor := clamp(mean(dowUsage)/overallAvg, seasonalFloor, seasonalCeil)

	a.mu.Lock()
	a.cache[key] = factor
	a.mu.Unlock()

	return factor
}

// Reset drops every cached factor. Called after model reload so factors are
// recomputed against fresh history.
func (a *SeasonalAdjuster) Reset() {
	a.mu.Lock()
	a.cache = make(map[seasonalKey]float64)
	a.mu.Unlock()
}
