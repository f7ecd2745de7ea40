package records

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

func TestDecode_SnakeCaseRow(t *testing.T) {
	row := map[string]any{
		"id":                 float64(42),
		"sale_date":          "2024-01-10T08:00:00Z",
		"company_name":       "FOUR N",
		"aggregate_type":     "S-1",
		"aggregate_quantity": "2",
		"driver_name":        "J. ROXAS",
		"plate_number":       "CAJ 1435",
		"hauler":             "FOUR N",
		"cash_po_number":     "PO#1",
		"dr_is_inv_number":   "IS#1046",
		"loaded_by":          "LOADER E. PERALTA",
		"amount":             1400.0,
		"payment_type":       "ACCOUNTS_RECEIVABLE",
	}
	r := Decode(row)
	assert.Equal(t, "42", r.ID)
	assert.Equal(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), r.SaleDate.UTC())
	assert.Equal(t, "FOUR N", r.CompanyName)
	assert.Equal(t, "S-1", r.AggregateType)
	assert.True(t, r.AggregateQuantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "J. ROXAS", r.DriverName)
	assert.Equal(t, "CAJ 1435", r.PlateNumber)
	assert.Equal(t, "PO#1", r.CashPONumber)
	assert.Equal(t, "IS#1046", r.DRISInvNumber)
	assert.Equal(t, "LOADER E. PERALTA", r.LoadedBy)
	assert.True(t, r.Amount.Equal(decimal.NewFromInt(1400)))
	assert.Equal(t, core.AccountsReceivable, r.PaymentType)
}

func TestDecode_CamelCaseWinsOverSnakeCase(t *testing.T) {
	row := map[string]any{
		"companyName":  "RA ROQUE",
		"company_name": "ignored",
		"plate_number": "AAT 2245",
		"saleDate":     "2024-02-01",
		"amount":       json.Number("2100.50"),
	}
	r := Decode(row)
	assert.Equal(t, "RA ROQUE", r.CompanyName)
	assert.Equal(t, "AAT 2245", r.PlateNumber)
	assert.Equal(t, 2024, r.SaleDate.Year())
	assert.True(t, r.Amount.Equal(decimal.RequireFromString("2100.5")))
}

func TestDecode_MalformedRowDefaults(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = time.Now }()

	r := Decode(map[string]any{
		"company_name":       nil,
		"aggregate_quantity": "lots",
		"amount":             -50.0,
		"payment_type":       "BARTER",
		"sale_date":          "not a date",
	})
	assert.Equal(t, "", r.ID)
	assert.Equal(t, "", r.CompanyName)
	assert.True(t, r.AggregateQuantity.IsZero())
	assert.True(t, r.Amount.IsZero())
	assert.Equal(t, core.Cash, r.PaymentType)
	assert.Equal(t, fixed, r.SaleDate)

	empty := Decode(map[string]any{})
	assert.Equal(t, fixed, empty.SaleDate)
	assert.Equal(t, core.Cash, empty.PaymentType)
}

func TestEncode_UsesWireNames(t *testing.T) {
	r := core.Record{
		ID:                "abc",
		SaleDate:          time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		AggregateQuantity: decimal.RequireFromString("2.5"),
		Amount:            decimal.NewFromInt(1400),
		PaymentType:       core.Cash,
	}
	m := Encode(r)
	require.Len(t, m, len(Columns))
	for _, name := range WireNames() {
		_, ok := m[name]
		assert.True(t, ok, "missing %s", name)
	}
	assert.Equal(t, "2024-01-10T00:00:00Z", m["sale_date"])
	assert.Equal(t, 2.5, m["aggregate_quantity"])

	back := Decode(m)
	assert.Equal(t, r.ID, back.ID)
	assert.True(t, back.SaleDate.Equal(r.SaleDate))
	assert.True(t, back.Amount.Equal(r.Amount))
}

func TestEncodeDraft_TenEditableColumns(t *testing.T) {
	m := EncodeDraft(core.Draft{CompanyName: "AUSTRIA", PaymentType: core.AccountsReceivable, Amount: decimal.NewFromInt(150)})
	assert.Len(t, m, 10)
	assert.Equal(t, "AUSTRIA", m["company_name"])
	assert.Equal(t, "ACCOUNTS_RECEIVABLE", m["payment_type"])
	assert.Equal(t, 150.0, m["amount"])
	_, hasDate := m["sale_date"]
	assert.False(t, hasDate)
}

func TestIDValue(t *testing.T) {
	assert.Equal(t, int64(17), IDValue("17"))
	assert.Equal(t, "17a", IDValue("17a"))
	assert.Equal(t, "", IDValue(""))
}
