package forecast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/storage"
)

// ArtifactStore enumerates and reads trained model artifacts. Implementations
// exist for a local directory (the default deployment, where a training job
// writes artifacts to disk) and for S3-compatible object storage.
type ArtifactStore interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// DirArtifactStore reads artifacts from a local directory.
type DirArtifactStore struct {
	dir string
}

func NewDirArtifactStore(dir string) *DirArtifactStore {
	return &DirArtifactStore{dir: dir}
}

func (s *DirArtifactStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list model dir %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

func (s *DirArtifactStore) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read model artifact %s: %w", name, err)
	}

	return data, nil
}

// ObjectArtifactStore reads artifacts straight from S3-compatible object
// storage under a fixed prefix.
type ObjectArtifactStore struct {
	store  storage.ObjectStorage
	prefix string
}

func NewObjectArtifactStore(store storage.ObjectStorage, prefix string) *ObjectArtifactStore {
	return &ObjectArtifactStore{store: store, prefix: prefix}
}

func (s *ObjectArtifactStore) List(ctx context.Context) ([]string, error) {
	objects, err := s.store.ListObjects(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list model artifacts: %w", err)
	}

	var names []string
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, ".json") {
			names = append(names, strings.TrimPrefix(obj.Key, s.prefix))
		}
	}

	return names, nil
}

func (s *ObjectArtifactStore) Read(ctx context.Context, name string) ([]byte, error) {
	return s.store.GetObject(ctx, s.prefix+name)
}

// parseArtifactDrugID extracts the drug id embedded in an artifact name of
// the form model_<drugID>_<slug>.json.
func parseArtifactDrugID(name string) (int64, bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	parts := strings.Split(base, "_")
	if len(parts) < 2 || parts[0] != "model" {
		return 0, false
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
