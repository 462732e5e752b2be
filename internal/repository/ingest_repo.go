package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
)

// IngestRepository writes rows produced by the CSV ingestion path. It works
// on plain database/sql so the ingest binary can share a connection with the
// seeding tools.
type IngestRepository struct {
	db *sql.DB
}

func NewIngestRepository(db *sql.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

// UpsertDrug inserts or refreshes a catalog row keyed by normalized name and
// returns its id.
func (r *IngestRepository) UpsertDrug(ctx context.Context, drug *domain.Drug) (int64, error) {
	query := `
		INSERT INTO drugs (name, unit, reorder_level, reorder_quantity, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (name)
		DO UPDATE SET
			unit = EXCLUDED.unit,
			reorder_level = EXCLUDED.reorder_level,
			reorder_quantity = EXCLUDED.reorder_quantity,
			updated_at = NOW()
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, drug.Name, drug.Unit, drug.ReorderLevel, drug.ReorderQuantity).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert drug: %w", err)
	}
	return id, nil
}

// GetDrugIDByName resolves a normalized drug name to its catalog id.
func (r *IngestRepository) GetDrugIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM drugs WHERE name = $1`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve drug %q: %w", name, err)
	}
	return id, nil
}

// LatestClosingStock returns the most recent closing stock for a drug so a
// new ingest can continue the ledger where the last one stopped. The second
// return value is false when the drug has no ledger rows yet.
func (r *IngestRepository) LatestClosingStock(ctx context.Context, drugID int64) (float64, bool, error) {
	var closing float64
	err := r.db.QueryRowContext(ctx,
		`SELECT closing_stock FROM inventory WHERE drug_id = $1 ORDER BY date DESC LIMIT 1`,
		drugID,
	).Scan(&closing)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read latest stock for drug %d: %w", drugID, err)
	}
	return closing, true, nil
}

// InsertUsageRecords writes a batch of ledger rows inside one transaction.
// The (drug_id, date) key is unique; re-ingesting a file replaces the rows
// it produced rather than duplicating them.
func (r *IngestRepository) InsertUsageRecords(ctx context.Context, records []domain.UsageRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO inventory (drug_id, date, quantity_used, opening_stock, closing_stock, stockout_flag)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (drug_id, date)
		DO UPDATE SET
			quantity_used = EXCLUDED.quantity_used,
			opening_stock = EXCLUDED.opening_stock,
			closing_stock = EXCLUDED.closing_stock,
			stockout_flag = EXCLUDED.stockout_flag
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare usage insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.DrugID, rec.Date, rec.QuantityUsed,
			rec.OpeningStock, rec.ClosingStock, rec.StockoutFlag,
		); err != nil {
			return fmt.Errorf("failed to insert usage row for drug %d on %s: %w",
				rec.DrugID, rec.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ingest transaction: %w", err)
	}

	return nil
}
