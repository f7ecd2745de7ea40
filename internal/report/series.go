package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// DefaultTopCompanies is how many customers the revenue ranking shows.
const DefaultTopCompanies = 10

// DayPoint is one day of the sales and volume trend charts.
type DayPoint struct {
	Date   time.Time       `json:"date"`
	Label  string          `json:"label"`
	Cash   decimal.Decimal `json:"cash"`
	AR     decimal.Decimal `json:"ar"`
	Total  decimal.Decimal `json:"total"`
	Volume decimal.Decimal `json:"volume"`
}

type VolumePoint struct {
	Date   time.Time       `json:"date"`
	Label  string          `json:"label"`
	Volume decimal.Decimal `json:"volume"`
}

type TypeQuantity struct {
	Type     string          `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Slice is a TypeQuantity with its share of the whole, for the pie chart.
type Slice struct {
	TypeQuantity
	Percent decimal.Decimal `json:"percent"`
}

type CompanyRevenue struct {
	Company string          `json:"company"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ByDay groups records by calendar day. Rows are ordered by date, not by
// label, so "Dec 31" sorts before "Jan 1" of the following year.
func ByDay(records []core.Record) []DayPoint {
	index := make(map[string]int)
	var points []DayPoint
	for _, r := range records {
		day := truncateDay(r.SaleDate)
		key := day.Format(time.DateOnly)
		i, ok := index[key]
		if !ok {
			i = len(points)
			index[key] = i
			points = append(points, DayPoint{Date: day, Label: day.Format("Jan 2")})
		}
		p := &points[i]
		switch r.PaymentType {
		case core.AccountsReceivable:
			p.AR = p.AR.Add(r.Amount)
		default:
			p.Cash = p.Cash.Add(r.Amount)
		}
		p.Total = p.Total.Add(r.Amount)
		p.Volume = p.Volume.Add(r.AggregateQuantity)
	}
	sort.SliceStable(points, func(a, b int) bool { return points[a].Date.Before(points[b].Date) })
	return points
}

// VolumeByDay is the volume trend: total cubic meters per calendar day.
func VolumeByDay(records []core.Record) []VolumePoint {
	days := ByDay(records)
	out := make([]VolumePoint, len(days))
	for i, d := range days {
		out[i] = VolumePoint{Date: d.Date, Label: d.Label, Volume: d.Volume}
	}
	return out
}

// ByType sums quantity per aggregate type in first-seen order. Records
// without a type are skipped.
func ByType(records []core.Record) []TypeQuantity {
	index := make(map[string]int)
	var out []TypeQuantity
	for _, r := range records {
		if r.AggregateType == "" {
			continue
		}
		i, ok := index[r.AggregateType]
		if !ok {
			i = len(out)
			index[r.AggregateType] = i
			out = append(out, TypeQuantity{Type: r.AggregateType})
		}
		out[i].Quantity = out[i].Quantity.Add(r.AggregateQuantity)
	}
	return out
}

// Breakdown is ByType ordered by quantity, largest first.
func Breakdown(records []core.Record) []TypeQuantity {
	out := ByType(records)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Quantity.GreaterThan(out[b].Quantity) })
	return out
}

// Distribution adds each type's percentage of the total quantity.
// Percent is zero when the total is zero.
func Distribution(records []core.Record) []Slice {
	types := ByType(records)
	total := decimal.Zero
	for _, t := range types {
		total = total.Add(t.Quantity)
	}
	out := make([]Slice, len(types))
	for i, t := range types {
		out[i] = Slice{TypeQuantity: t, Percent: decimal.Zero}
		if total.IsPositive() {
			out[i].Percent = t.Quantity.Mul(decimal.NewFromInt(100)).Div(total).Round(0)
		}
	}
	return out
}

// TopCompanies ranks customers by summed amount and keeps the first n.
// Ties keep first-seen order.
func TopCompanies(records []core.Record, n int) []CompanyRevenue {
	index := make(map[string]int)
	var out []CompanyRevenue
	for _, r := range records {
		i, ok := index[r.CompanyName]
		if !ok {
			i = len(out)
			index[r.CompanyName] = i
			out = append(out, CompanyRevenue{Company: r.CompanyName})
		}
		out[i].Revenue = out[i].Revenue.Add(r.Amount)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Revenue.GreaterThan(out[b].Revenue) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
