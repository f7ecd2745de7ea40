package report

import (
	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Totals are the scalars shown on the metric cards.
type Totals struct {
	Count  int                        `json:"count"`
	Total  decimal.Decimal            `json:"total"`
	Cash   decimal.Decimal            `json:"cash"`
	AR     decimal.Decimal            `json:"ar"`
	Volume decimal.Decimal            `json:"volume"`
	ByType map[string]decimal.Decimal `json:"byType"`
}

// ComputeTotals reduces records in a single pass. An empty input yields
// zero values and an empty ByType map.
func ComputeTotals(records []core.Record) Totals {
	t := Totals{
		Total:  decimal.Zero,
		Cash:   decimal.Zero,
		AR:     decimal.Zero,
		Volume: decimal.Zero,
		ByType: make(map[string]decimal.Decimal),
	}
	for _, r := range records {
		t.Count++
		t.Total = t.Total.Add(r.Amount)
		switch r.PaymentType {
		case core.AccountsReceivable:
			t.AR = t.AR.Add(r.Amount)
		default:
			t.Cash = t.Cash.Add(r.Amount)
		}
		t.Volume = t.Volume.Add(r.AggregateQuantity)
		if r.AggregateType != "" {
			t.ByType[r.AggregateType] = t.ByType[r.AggregateType].Add(r.AggregateQuantity)
		}
	}
	return t
}

// TallyColumns are the quantity columns of the tally sheet.
var TallyColumns = core.AggregateTypes

// QuantityFor returns r's quantity when its type matches column, else zero.
func QuantityFor(r core.Record, column string) decimal.Decimal {
	if core.SameType(r.AggregateType, column) {
		return r.AggregateQuantity
	}
	return decimal.Zero
}

// ColumnTotal is the footer cell under one tally column.
type ColumnTotal struct {
	Type     string          `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ColumnTotals sums each tally column, matching types case-insensitively.
func ColumnTotals(records []core.Record) []ColumnTotal {
	out := make([]ColumnTotal, len(TallyColumns))
	for i, col := range TallyColumns {
		out[i] = ColumnTotal{Type: col, Quantity: decimal.Zero}
		for _, r := range records {
			out[i].Quantity = out[i].Quantity.Add(QuantityFor(r, col))
		}
	}
	return out
}
