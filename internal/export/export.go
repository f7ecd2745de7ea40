// Package export writes the tally sheet of a period as CSV or XLSX.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/report"
)

const dateLayout = "Jan 2, 2006"

// Sheet is the tally sheet of one period: rows newest first and the footer
// totals over every row.
type Sheet struct {
	Title   string
	Rows    []core.Record
	Columns []report.ColumnTotal
	Amount  decimal.Decimal
}

// NewSheet sorts records and computes the footer.
func NewSheet(title string, records []core.Record) Sheet {
	return Sheet{
		Title:   title,
		Rows:    report.SortNewestFirst(records),
		Columns: report.ColumnTotals(records),
		Amount:  report.ComputeTotals(records).Total,
	}
}

// Header lists the column titles in sheet order.
func Header() []string {
	h := []string{"Date", "Company Name"}
	h = append(h, report.TallyColumns...)
	return append(h, "Driver", "Plate No.", "DR/IS/INV #", "Payment Type", "Amount")
}

// cells renders one record. Quantities and amount stay decimals so the
// XLSX writer can store numbers.
func cells(r core.Record, loc *time.Location) []any {
	row := []any{r.SaleDate.In(loc).Format(dateLayout), r.CompanyName}
	for _, col := range report.TallyColumns {
		row = append(row, report.QuantityFor(r, col))
	}
	return append(row, r.DriverName, r.PlateNumber, r.DRISInvNumber, r.PaymentType.Label(), r.Amount)
}

func footer(s Sheet) []any {
	row := []any{"Totals", ""}
	for _, c := range s.Columns {
		row = append(row, c.Quantity)
	}
	return append(row, "", "", "", "", s.Amount)
}
