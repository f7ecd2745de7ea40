package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Column pairs the in-memory attribute name with the stored column name.
type Column struct {
	Field string // camelCase
	Wire  string // snake_case
}

// Columns is the fixed mapping between record attributes and the
// sales_records table, in table order.
var Columns = []Column{
	{"id", "id"},
	{"saleDate", "sale_date"},
	{"companyName", "company_name"},
	{"aggregateType", "aggregate_type"},
	{"aggregateQuantity", "aggregate_quantity"},
	{"driverName", "driver_name"},
	{"plateNumber", "plate_number"},
	{"hauler", "hauler"},
	{"cashPoNumber", "cash_po_number"},
	{"drIsInvNumber", "dr_is_inv_number"},
	{"loadedBy", "loaded_by"},
	{"amount", "amount"},
	{"paymentType", "payment_type"},
}

var wireByField = func() map[string]string {
	m := make(map[string]string, len(Columns))
	for _, c := range Columns {
		m[c.Field] = c.Wire
	}
	return m
}()

// WireNames lists the stored column names in table order.
func WireNames() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Wire
	}
	return out
}

// lookup reads field by its camelCase name, then by its snake_case name.
// Nil values count as absent.
func lookup(row map[string]any, field string) (any, bool) {
	if v, ok := row[field]; ok && v != nil {
		return v, true
	}
	if v, ok := row[wireByField[field]]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// Decode builds a record from a stored row. It never fails: missing or
// unreadable values fall back to "", zero, CASH, and the current time for
// the sale date. Negative numbers are clamped to zero.
func Decode(row map[string]any) core.Record {
	return core.Record{
		ID:                stringField(row, "id"),
		SaleDate:          timeField(row, "saleDate"),
		CompanyName:       stringField(row, "companyName"),
		AggregateType:     stringField(row, "aggregateType"),
		AggregateQuantity: core.NonNegative(decimalField(row, "aggregateQuantity")),
		DriverName:        stringField(row, "driverName"),
		PlateNumber:       stringField(row, "plateNumber"),
		Hauler:            stringField(row, "hauler"),
		CashPONumber:      stringField(row, "cashPoNumber"),
		DRISInvNumber:     stringField(row, "drIsInvNumber"),
		LoadedBy:          stringField(row, "loadedBy"),
		Amount:            core.NonNegative(decimalField(row, "amount")),
		PaymentType:       core.ParsePaymentType(stringField(row, "paymentType")),
	}
}

// Encode writes every column of r under its snake_case name.
func Encode(r core.Record) map[string]any {
	return map[string]any{
		"id":                 r.ID,
		"sale_date":          r.SaleDate.UTC().Format(time.RFC3339),
		"company_name":       r.CompanyName,
		"aggregate_type":     r.AggregateType,
		"aggregate_quantity": r.AggregateQuantity.InexactFloat64(),
		"driver_name":        r.DriverName,
		"plate_number":       r.PlateNumber,
		"hauler":             r.Hauler,
		"cash_po_number":     r.CashPONumber,
		"dr_is_inv_number":   r.DRISInvNumber,
		"loaded_by":          r.LoadedBy,
		"amount":             r.Amount.InexactFloat64(),
		"payment_type":       string(r.PaymentType),
	}
}

// EncodeDraft is the update payload: the ten editable columns.
func EncodeDraft(d core.Draft) map[string]any {
	return map[string]any{
		"aggregate_type":     d.AggregateType,
		"aggregate_quantity": d.AggregateQuantity.InexactFloat64(),
		"amount":             d.Amount.InexactFloat64(),
		"payment_type":       string(d.PaymentType),
		"driver_name":        d.DriverName,
		"plate_number":       d.PlateNumber,
		"dr_is_inv_number":   d.DRISInvNumber,
		"hauler":             d.Hauler,
		"loaded_by":          d.LoadedBy,
		"company_name":       d.CompanyName,
	}
}

// IDValue returns id as an int64 when it is all digits, so numeric primary
// keys are matched as numbers.
func IDValue(id string) any {
	if id == "" {
		return id
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return id
		}
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return id
	}
	return n
}

func stringField(row map[string]any, field string) string {
	v, ok := lookup(row, field)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func decimalField(row map[string]any, field string) decimal.Decimal {
	v, ok := lookup(row, field)
	if !ok {
		return decimal.Zero
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int32:
		return decimal.NewFromInt32(t)
	case int64:
		return decimal.NewFromInt(t)
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case []byte:
		return parseLooseDecimal(string(t))
	case string:
		return parseLooseDecimal(t)
	}
	return decimal.Zero
}

// parseLooseDecimal accepts "1,400.00", "1400,5" and "₱ 950".
func parseLooseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "₱"))
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") && strings.Count(s, ",") == 1 && len(s)-strings.IndexByte(s, ',')-1 != 3 {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"1/2/2006",
}

// timeNow is replaced in tests.
var timeNow = time.Now

func timeField(row map[string]any, field string) time.Time {
	v, ok := lookup(row, field)
	if !ok {
		return timeNow()
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case float64:
		// Milliseconds since the epoch.
		return time.UnixMilli(int64(t))
	case int64:
		return time.UnixMilli(t)
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
	}
	return timeNow()
}

// WireName maps a camelCase attribute name to its column name. Names that
// are already column names, or unknown, are returned unchanged.
func WireName(name string) string {
	if w, ok := wireByField[name]; ok {
		return w
	}
	return name
}
