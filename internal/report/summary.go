package report

import (
	"time"

	"tally/internal/core"
)

// Summary bundles everything the overview and analytics tabs render for one
// period.
type Summary struct {
	Period       core.Period      `json:"period"`
	Label        string           `json:"label"`
	Totals       Totals           `json:"totals"`
	Breakdown    []TypeQuantity   `json:"breakdown"`
	Distribution []Slice          `json:"distribution"`
	Days         []DayPoint       `json:"days"`
	Volume       []VolumePoint    `json:"volume"`
	TopCompanies []CompanyRevenue `json:"topCompanies"`
	Columns      []ColumnTotal    `json:"columns"`
}

// Build filters records to the period and computes every view over the
// filtered set.
func Build(records []core.Record, kind core.Period, ref, now time.Time) Summary {
	filtered := Filter(records, kind, ref, now)
	return Summary{
		Period:       kind,
		Label:        PeriodLabel(kind, ref, now),
		Totals:       ComputeTotals(filtered),
		Breakdown:    Breakdown(filtered),
		Distribution: Distribution(filtered),
		Days:         ByDay(filtered),
		Volume:       VolumeByDay(filtered),
		TopCompanies: TopCompanies(filtered, DefaultTopCompanies),
		Columns:      ColumnTotals(filtered),
	}
}
