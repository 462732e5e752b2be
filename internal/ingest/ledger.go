package ingest

import (
	"sort"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
)

// BuildLedger folds a drug's parsed rows into daily ledger records. Rows are
// sorted by date and duplicate dates are merged by summing quantities, so
// exports with one line per dispensing event still produce one row per day.
//
// Each day's opening stock is the previous day's closing stock; the first
// day opens at openingStock. Closing stock never goes below zero, and a day
// whose demand exceeds the available stock is flagged as a stockout. The
// input slice is not modified.
func BuildLedger(drugID int64, openingStock float64, rows []UsageRow) []domain.UsageRecord {
	if len(rows) == 0 {
		return nil
	}

	merged := mergeByDate(rows)

	records := make([]domain.UsageRecord, 0, len(merged))
	stock := openingStock
	for _, row := range merged {
		dispensed := row.QuantityUsed
		stockout := dispensed > stock
		if stockout {
			dispensed = stock
		}
		closing := stock - dispensed

		records = append(records, domain.UsageRecord{
			DrugID:       drugID,
			Date:         row.Date,
			QuantityUsed: row.QuantityUsed,
			OpeningStock: stock,
			ClosingStock: closing,
			StockoutFlag: stockout,
		})

		stock = closing
	}

	return records
}

func mergeByDate(rows []UsageRow) []UsageRow {
	byDate := make(map[int64]UsageRow, len(rows))
	for _, row := range rows {
		key := row.Date.Unix()
		if existing, ok := byDate[key]; ok {
			existing.QuantityUsed += row.QuantityUsed
			byDate[key] = existing
		} else {
			byDate[key] = row
		}
	}

	merged := make([]UsageRow, 0, len(byDate))
	for _, row := range byDate {
		merged = append(merged, row)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	return merged
}
