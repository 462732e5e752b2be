// backend-go/internal/repository/drug_repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

// DrugRepository reads the drug catalog. The catalog is owned by the
// inventory system; this service only ever reads it.
type DrugRepository interface {
	GetDrugs(ctx context.Context) ([]domain.Drug, error)
	GetDrug(ctx context.Context, drugID int64) (*domain.Drug, error)
}

type drugRepository struct {
	db *sqlx.DB
}

func NewDrugRepository(db *sqlx.DB) DrugRepository {
	return &drugRepository{db: db}
}

func (r *drugRepository) GetDrugs(ctx context.Context) ([]domain.Drug, error) {
	query := `
		SELECT id, name, unit, reorder_level, reorder_quantity
		FROM drugs
		ORDER BY id
	`

	var drugs []domain.Drug
	if err := r.db.SelectContext(ctx, &drugs, query); err != nil {
		return nil, fmt.Errorf("error getting drugs: %w", err)
	}

	return drugs, nil
}

func (r *drugRepository) GetDrug(ctx context.Context, drugID int64) (*domain.Drug, error) {
	query := `
		SELECT id, name, unit, reorder_level, reorder_quantity
		FROM drugs
		WHERE id = $1
	`

	var drug domain.Drug
	if err := r.db.GetContext(ctx, &drug, query, drugID); err != nil {
		return nil, fmt.Errorf("error getting drug %d: %w", drugID, err)
	}

	return &drug, nil
}
