package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// UsageRow is one parsed line of a usage export: how much of a drug was
// dispensed on a given day. Unit and reorder columns are optional; the
// catalog defaults apply when they are missing.
type UsageRow struct {
	DrugName        string
	Unit            string
	ReorderLevel    float64
	ReorderQuantity float64
	Date            time.Time
	QuantityUsed    float64
}

const (
	defaultUnit                 = "units"
	defaultReorderLevel float64 = 50
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// ParseUsageCSV reads a usage export. The header must contain date,
// drug_name and quantity_used; unit, reorder_level and reorder_quantity are
// picked up when present. Rows with an empty drug name or an unparseable
// date fail the whole file, since a partial ingest would corrupt the ledger.
func ParseUsageCSV(r io.Reader) ([]UsageRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range []string{"date", "drug_name", "quantity_used"} {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var rows []UsageRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		row, err := parseRow(record, colMap)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseRow(record []string, colMap map[string]int) (UsageRow, error) {
	getValue := func(colName string) string {
		if idx, ok := colMap[colName]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	getFloat := func(colName string) float64 {
		f, _ := strconv.ParseFloat(getValue(colName), 64)
		return f
	}

	name := NormalizeDrugName(getValue("drug_name"))
	if name == "" {
		return UsageRow{}, fmt.Errorf("empty drug_name")
	}

	date, err := parseDate(getValue("date"))
	if err != nil {
		return UsageRow{}, err
	}

	row := UsageRow{
		DrugName:        name,
		Unit:            getValue("unit"),
		ReorderLevel:    getFloat("reorder_level"),
		ReorderQuantity: getFloat("reorder_quantity"),
		Date:            date,
		QuantityUsed:    getFloat("quantity_used"),
	}
	if row.Unit == "" {
		row.Unit = defaultUnit
	}
	if row.ReorderLevel <= 0 {
		row.ReorderLevel = defaultReorderLevel
	}
	if row.QuantityUsed < 0 {
		return UsageRow{}, fmt.Errorf("negative quantity_used for %s", name)
	}

	return row, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// NormalizeDrugName collapses whitespace so "Amoxicillin  500mg " and
// "Amoxicillin 500mg" resolve to the same catalog row.
func NormalizeDrugName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
