package forecast

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// Catalog is the slice of the drug catalog the registry needs.
type Catalog interface {
	GetDrugs(ctx context.Context) ([]domain.Drug, error)
}

// Registry maps drug id to its trained predictor. The model map is replaced
// wholesale via atomic swap on reload, so concurrent readers see either the
// old complete generation or the new one, never a mix. Readers never block
// on reload.
type Registry struct {
	store   ArtifactStore
	catalog Catalog

	models atomic.Value // map[int64]*loadedModel
	drugs  atomic.Value // map[int64]domain.Drug
}

func NewRegistry(store ArtifactStore, catalog Catalog) *Registry {
	r := &Registry{store: store, catalog: catalog}
	r.models.Store(map[int64]*loadedModel{})
	r.drugs.Store(map[int64]domain.Drug{})

	return r
}

// Load scans the artifact store and deserializes every model it can.
// Artifacts that fail to parse or decode are skipped with a warning; a bad
// artifact never poisons the rest of the registry. Returns the number of
// models now loaded.
func (r *Registry) Load(ctx context.Context) (int, error) {
	names, err := r.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan model artifacts: %w", err)
	}

	next := make(map[int64]*loadedModel, len(names))
	for _, name := range names {
		drugID, ok := parseArtifactDrugID(name)
		if !ok {
			log.Warn().Str("artifact", name).Msg("skipping artifact with unparseable name")
			continue
		}

		data, err := r.store.Read(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("artifact", name).Msg("skipping unreadable model artifact")
			continue
		}

		embeddedID, lm, err := decodeModel(data)
		if err != nil {
			log.Warn().Err(err).Str("artifact", name).Msg("skipping malformed model artifact")
			continue
		}
		if embeddedID != drugID {
			log.Warn().
				Str("artifact", name).
				Int64("embedded_drug_id", embeddedID).
				Msg("skipping artifact whose payload disagrees with its name")
			continue
		}

		next[drugID] = lm
	}

	// Single atomic swap: the new generation becomes visible all at once.
	r.models.Store(next)
	log.Info().Int("models", len(next)).Msg("model registry loaded")

	if err := r.refreshDrugInfo(ctx); err != nil {
		log.Warn().Err(err).Msg("drug info refresh failed, keeping previous catalog snapshot")
	}

	return len(next), nil
}

// Reload is Load; the name exists for the post-retraining call path.
func (r *Registry) Reload(ctx context.Context) (int, error) {
	return r.Load(ctx)
}

// refreshDrugInfo re-reads drug metadata from the catalog and swaps the
// cached snapshot with the same discipline as the model map.
func (r *Registry) refreshDrugInfo(ctx context.Context) error {
	drugs, err := r.catalog.GetDrugs(ctx)
	if err != nil {
		return fmt.Errorf("load drug catalog: %w", err)
	}

	next := make(map[int64]domain.Drug, len(drugs))
	for _, d := range drugs {
		next[d.ID] = d
	}
	r.drugs.Store(next)

	return nil
}

func (r *Registry) currentModels() map[int64]*loadedModel {
	return r.models.Load().(map[int64]*loadedModel)
}

// Predict runs the drug's model against a feature vector. Returns
// ErrModelNotFound when no model is registered for the id.
func (r *Registry) Predict(drugID int64, fv FeatureVector) (float64, error) {
	lm, ok := r.currentModels()[drugID]
	if !ok {
		return 0, modelNotFound(drugID)
	}

	return lm.model.Predict(fv), nil
}

// Has reports whether a model is loaded for the drug.
func (r *Registry) Has(drugID int64) bool {
	_, ok := r.currentModels()[drugID]
	return ok
}

// Count returns how many models are currently loaded.
func (r *Registry) Count() int {
	return len(r.currentModels())
}

// DrugIDs returns the ids of all loaded models in ascending order.
func (r *Registry) DrugIDs() []int64 {
	models := r.currentModels()

	ids := make([]int64, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Drug returns the cached catalog record for a drug.
func (r *Registry) Drug(drugID int64) (domain.Drug, bool) {
	d, ok := r.drugs.Load().(map[int64]domain.Drug)[drugID]
	return d, ok
}

// Models lists every loaded model with its training metadata.
func (r *Registry) Models() []domain.ModelInfo {
	models := r.currentModels()

	ids := make([]int64, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	infos := make([]domain.ModelInfo, 0, len(models))
	for _, id := range ids {
		lm := models[id]

		info := domain.ModelInfo{
			DrugID:    id,
			DrugName:  lm.drugName,
			Unit:      "units",
			TrainedAt: lm.trainedAt,
			Metrics:   lm.metrics,
		}
		if d, ok := r.Drug(id); ok {
			info.DrugName = d.Name
			info.Unit = d.Unit
		}

		infos = append(infos, info)
	}

	return infos
}
