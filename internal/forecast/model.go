package forecast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
)

// Model is an opaque per-drug predictor. How it was trained is not this
// package's concern; it only promises a demand estimate for a feature vector.
type Model interface {
	Predict(fv FeatureVector) float64
}

// modelArtifact is the JSON document the training job writes per drug,
// named model_<drugID>_<slug>.json.
type modelArtifact struct {
	DrugID    int64               `json:"drug_id"`
	DrugName  string              `json:"drug_name"`
	Algorithm string              `json:"algorithm"`
	Intercept float64             `json:"intercept"`
	Weights   map[string]float64  `json:"weights"`
	TrainedAt time.Time           `json:"trained_at"`
	Metrics   domain.ModelMetrics `json:"metrics"`
}

// loadedModel is one registry entry: the predictor plus the training
// metadata exposed on the /models listing.
type loadedModel struct {
	model     Model
	drugName  string
	trainedAt time.Time
	metrics   domain.ModelMetrics
}

// linearModel evaluates intercept + sum(weight * feature). Weights reference
// feature column names; unknown names contribute nothing.
type linearModel struct {
	intercept float64
	weights   map[string]float64
}

func (m *linearModel) Predict(fv FeatureVector) float64 {
	values := fv.Map()

	pred := m.intercept
	for name, w := range m.weights {
		pred += w * values[name]
	}

	return pred
}

// decodeModel deserializes one artifact into a registry entry.
func decodeModel(data []byte) (int64, *loadedModel, error) {
	var artifact modelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return 0, nil, fmt.Errorf("decode model artifact: %w", err)
	}

	if artifact.DrugID <= 0 {
		return 0, nil, fmt.Errorf("model artifact missing drug_id")
	}

	switch artifact.Algorithm {
	case "", "linear":
		// Older artifacts omit the algorithm field; they are all linear.
	default:
		return 0, nil, fmt.Errorf("unsupported model algorithm %q", artifact.Algorithm)
	}

	if len(artifact.Weights) == 0 {
		return 0, nil, fmt.Errorf("model artifact for drug %d has no weights", artifact.DrugID)
	}

	return artifact.DrugID, &loadedModel{
		model: &linearModel{
			intercept: artifact.Intercept,
			weights:   artifact.Weights,
		},
		drugName:  artifact.DrugName,
		trainedAt: artifact.TrainedAt,
		metrics:   artifact.Metrics,
	}, nil
}
