// backend-go/internal/repository/usage_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

// UsageRepository reads the append-only consumption ledger. All queries
// return rows most-recent-first because the feature math depends on that
// ordering.
type UsageRepository interface {
	// GetRecentUsage returns up to days records for one drug, date DESC.
	GetRecentUsage(ctx context.Context, drugID int64, days int) ([]domain.UsageRecord, error)
	// GetRecentUsageAll returns a trailing window for every drug in one
	// query, ordered (drug_id, date DESC).
	GetRecentUsageAll(ctx context.Context, days int) ([]domain.UsageRecord, error)
	// GetCurrentStock returns the latest closing stock for one drug, zero
	// when the drug has no ledger rows yet.
	GetCurrentStock(ctx context.Context, drugID int64) (float64, error)
	// GetAllCurrentStock returns the latest closing stock for every drug.
	GetAllCurrentStock(ctx context.Context) (map[int64]float64, error)
}

type usageRepository struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) GetRecentUsage(ctx context.Context, drugID int64, days int) ([]domain.UsageRecord, error) {
	query := `
		SELECT drug_id, date, quantity_used, opening_stock, closing_stock, stockout_flag
		FROM inventory
		WHERE drug_id = $1
		  AND date >= CURRENT_DATE - $2 * INTERVAL '1 day'
		ORDER BY date DESC
		LIMIT $2
	`

	var records []domain.UsageRecord
	if err := r.db.SelectContext(ctx, &records, query, drugID, days); err != nil {
		return nil, fmt.Errorf("error getting recent usage for drug %d: %w", drugID, err)
	}

	return records, nil
}

func (r *usageRepository) GetRecentUsageAll(ctx context.Context, days int) ([]domain.UsageRecord, error) {
	query := `
		SELECT drug_id, date, quantity_used, opening_stock, closing_stock, stockout_flag
		FROM inventory
		WHERE date >= CURRENT_DATE - $1 * INTERVAL '1 day'
		ORDER BY drug_id, date DESC
	`

	var records []domain.UsageRecord
	if err := r.db.SelectContext(ctx, &records, query, days); err != nil {
		return nil, fmt.Errorf("error getting bulk usage window: %w", err)
	}

	return records, nil
}

func (r *usageRepository) GetCurrentStock(ctx context.Context, drugID int64) (float64, error) {
	query := `
		SELECT closing_stock
		FROM inventory
		WHERE drug_id = $1
		ORDER BY date DESC
		LIMIT 1
	`

	var stock float64
	if err := r.db.GetContext(ctx, &stock, query, drugID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("error getting current stock for drug %d: %w", drugID, err)
	}

	return stock, nil
}

func (r *usageRepository) GetAllCurrentStock(ctx context.Context) (map[int64]float64, error) {
	query := `
		SELECT DISTINCT ON (drug_id) drug_id, closing_stock
		FROM inventory
		ORDER BY drug_id, date DESC
	`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error getting current stock levels: %w", err)
	}
	defer rows.Close()

	stock := make(map[int64]float64)
	for rows.Next() {
		var drugID int64
		var closing float64
		if err := rows.Scan(&drugID, &closing); err != nil {
			return nil, fmt.Errorf("error scanning stock row: %w", err)
		}
		stock[drugID] = closing
	}

	return stock, rows.Err()
}
