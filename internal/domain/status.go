package domain

import "strings"

// RecommendationStatus classifies how healthy a drug's stock position is
// relative to its forecast demand.
type RecommendationStatus string

const (
	StatusUrgent   RecommendationStatus = "urgent"
	StatusCritical RecommendationStatus = "critical"
	StatusWarning  RecommendationStatus = "warning"
	StatusOK       RecommendationStatus = "ok"
)

var statusLabels = map[RecommendationStatus]string{
	StatusUrgent:   "Urgent",
	StatusCritical: "Critical",
	StatusWarning:  "Warning",
	StatusOK:       "Good",
}

// Label returns a human-readable label for a recommendation status.
func (s RecommendationStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}

	return "Unknown"
}

// ParseRecommendationStatus returns the status for a given label
// (case-insensitive).
func ParseRecommendationStatus(label string) (RecommendationStatus, bool) {
	s := RecommendationStatus(strings.ToLower(label))
	_, ok := statusLabels[s]

	return s, ok
}
