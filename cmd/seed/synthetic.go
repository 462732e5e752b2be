package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/domain"
)

// drugSeed describes one catalog entry and the shape of its synthetic
// demand. BaseDemand is the average weekday usage; the factors scale it for
// weekends and for the rainy season.
type drugSeed struct {
	Name            string
	Unit            string
	ReorderLevel    float64
	ReorderQuantity float64
	BaseDemand      float64
	WeekendFactor   float64
	RainyFactor     float64
	Noise           float64
}

// The default catalog covers the common dispensary shelf. Flu and cough
// medicines spike in the rainy season; chronic medication stays flat.
var defaultCatalog = []drugSeed{
	{Name: "Paracetamol 500mg", Unit: "tablets", ReorderLevel: 100, ReorderQuantity: 300, BaseDemand: 40, WeekendFactor: 0.7, RainyFactor: 1.4, Noise: 6},
	{Name: "Amoxicillin 250mg", Unit: "capsules", ReorderLevel: 60, ReorderQuantity: 180, BaseDemand: 20, WeekendFactor: 0.6, RainyFactor: 1.3, Noise: 4},
	{Name: "Ibuprofen 400mg", Unit: "tablets", ReorderLevel: 80, ReorderQuantity: 240, BaseDemand: 25, WeekendFactor: 0.8, RainyFactor: 1.1, Noise: 5},
	{Name: "Cetirizine 10mg", Unit: "tablets", ReorderLevel: 40, ReorderQuantity: 120, BaseDemand: 12, WeekendFactor: 0.7, RainyFactor: 1.5, Noise: 3},
	{Name: "OBH Combi Syrup 100ml", Unit: "bottles", ReorderLevel: 30, ReorderQuantity: 90, BaseDemand: 8, WeekendFactor: 0.8, RainyFactor: 1.8, Noise: 2},
	{Name: "Amlodipine 5mg", Unit: "tablets", ReorderLevel: 50, ReorderQuantity: 150, BaseDemand: 15, WeekendFactor: 1.0, RainyFactor: 1.0, Noise: 2},
	{Name: "Metformin 500mg", Unit: "tablets", ReorderLevel: 60, ReorderQuantity: 180, BaseDemand: 18, WeekendFactor: 1.0, RainyFactor: 1.0, Noise: 2},
	{Name: "Omeprazole 20mg", Unit: "capsules", ReorderLevel: 40, ReorderQuantity: 120, BaseDemand: 10, WeekendFactor: 0.9, RainyFactor: 1.0, Noise: 2},
	{Name: "Oralit Sachet", Unit: "sachets", ReorderLevel: 50, ReorderQuantity: 200, BaseDemand: 10, WeekendFactor: 0.9, RainyFactor: 1.6, Noise: 3},
	{Name: "Vitamin C 500mg", Unit: "tablets", ReorderLevel: 60, ReorderQuantity: 180, BaseDemand: 20, WeekendFactor: 1.1, RainyFactor: 1.2, Noise: 4},
	{Name: "Salbutamol Inhaler", Unit: "units", ReorderLevel: 20, ReorderQuantity: 60, BaseDemand: 4, WeekendFactor: 0.8, RainyFactor: 1.3, Noise: 1},
	{Name: "Loperamide 2mg", Unit: "tablets", ReorderLevel: 30, ReorderQuantity: 90, BaseDemand: 6, WeekendFactor: 0.9, RainyFactor: 1.4, Noise: 2},
}

func isRainyMonth(m time.Month) bool {
	switch m {
	case time.April, time.May, time.June, time.July, time.September, time.October, time.November:
		return true
	}
	return false
}

// generateUsage produces a daily ledger for one drug ending yesterday. The
// stock is folded forward day by day: each day opens with the previous
// day's closing stock, and a restock of ReorderQuantity arrives the morning
// after closing stock falls to the reorder level or below.
func generateUsage(seed drugSeed, drugID int64, start time.Time, days int, rng *rand.Rand) []domain.UsageRecord {
	records := make([]domain.UsageRecord, 0, days)
	stock := seed.ReorderQuantity

	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)

		demand := seed.BaseDemand
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			demand *= seed.WeekendFactor
		}
		if isRainyMonth(date.Month()) {
			demand *= seed.RainyFactor
		}
		demand += rng.NormFloat64() * seed.Noise
		demand = math.Round(math.Max(0, demand))

		dispensed := demand
		stockout := dispensed > stock
		if stockout {
			dispensed = stock
		}
		closing := stock - dispensed

		records = append(records, domain.UsageRecord{
			DrugID:       drugID,
			Date:         date,
			QuantityUsed: demand,
			OpeningStock: stock,
			ClosingStock: closing,
			StockoutFlag: stockout,
		})

		stock = closing
		if stock <= seed.ReorderLevel {
			stock += seed.ReorderQuantity
		}
	}

	return records
}
