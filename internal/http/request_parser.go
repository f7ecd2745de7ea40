// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the dashboard view selection from query strings and the admin forms.

package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Dashboard tabs. The admin tab only renders for admin sessions.
const (
	TabOverview  = "overview"
	TabAnalytics = "analytics"
	TabReports   = "reports"
	TabAdmin     = "admin"
)

var tabs = []string{TabOverview, TabAnalytics, TabReports, TabAdmin}

// ViewParams is the period, reference date, tab and tally page a request
// asks for.
type ViewParams struct {
	Period core.Period
	Date   time.Time
	Tab    string
	Page   int
}

// DateValue is Date in the form used by date inputs and query strings.
func (v ViewParams) DateValue() string { return v.Date.Format(time.DateOnly) }

// Query encodes v for links, overriding the page.
func (v ViewParams) Query(page int) string {
	q := url.Values{}
	q.Set("period", string(v.Period))
	q.Set("date", v.DateValue())
	q.Set("tab", v.Tab)
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return q.Encode()
}

// ParseViewParams reads period, date, tab and page with defaults: daily,
// today, overview, page 1. Unknown values fall back to the defaults.
func ParseViewParams(values url.Values, now time.Time) ViewParams {
	v := ViewParams{
		Period: core.ParsePeriod(values.Get("period")),
		Date:   now,
		Tab:    TabOverview,
		Page:   1,
	}
	if d := strings.TrimSpace(values.Get("date")); d != "" {
		if parsed, err := time.ParseInLocation(time.DateOnly, d, now.Location()); err == nil {
			v.Date = parsed
		}
	}
	if t := strings.ToLower(strings.TrimSpace(values.Get("tab"))); t != "" {
		for _, known := range tabs {
			if t == known {
				v.Tab = t
			}
		}
	}
	if p := strings.TrimSpace(values.Get("page")); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			v.Page = n
		}
	}
	return v
}

// ParseDelivery reads the admin entry form. A blank sale date is today.
// Malformed numbers are reported before the form reaches validation.
func ParseDelivery(form url.Values, now time.Time) (core.Delivery, error) {
	d := core.Delivery{
		SaleDate:      now,
		CompanyName:   sanitizeInput(form.Get("company_name")),
		DriverName:    sanitizeInput(form.Get("driver_name")),
		PlateNumber:   sanitizeInput(form.Get("plate_number")),
		Hauler:        sanitizeInput(form.Get("hauler")),
		CashPONumber:  sanitizeInput(form.Get("cash_po_number")),
		DRISInvNumber: sanitizeInput(form.Get("dr_is_inv_number")),
		LoadedBy:      sanitizeInput(form.Get("loaded_by")),
		PaymentType:   core.ParsePaymentType(form.Get("payment_type")),
	}
	if s := strings.TrimSpace(form.Get("sale_date")); s != "" {
		t, err := time.ParseInLocation(time.DateOnly, s, now.Location())
		if err != nil {
			return d, fmt.Errorf("Invalid date %q.", s)
		}
		d.SaleDate = t
	}

	var err error
	if d.Amount, err = parseAmount(form.Get("amount")); err != nil {
		return d, err
	}
	quantities := []struct {
		field string
		dst   *decimal.Decimal
	}{
		{"s1_qty", &d.S1},
		{"g1_qty", &d.G1},
		{"three_fourths_qty", &d.ThreeFourths},
		{"three_eighths_qty", &d.ThreeEighths},
		{"mix_qty", &d.Mix},
	}
	for _, q := range quantities {
		if *q.dst, err = parseQuantity(form.Get(q.field)); err != nil {
			return d, err
		}
	}
	return d, nil
}

// ParseDraft reads the inline edit row.
func ParseDraft(form url.Values) (core.Draft, error) {
	d := core.Draft{
		AggregateType: sanitizeInput(form.Get("aggregate_type")),
		PaymentType:   core.ParsePaymentType(form.Get("payment_type")),
		DriverName:    sanitizeInput(form.Get("driver_name")),
		PlateNumber:   sanitizeInput(form.Get("plate_number")),
		DRISInvNumber: sanitizeInput(form.Get("dr_is_inv_number")),
		Hauler:        sanitizeInput(form.Get("hauler")),
		LoadedBy:      sanitizeInput(form.Get("loaded_by")),
		CompanyName:   sanitizeInput(form.Get("company_name")),
	}
	var err error
	if d.AggregateQuantity, err = parseQuantity(form.Get("aggregate_quantity")); err != nil {
		return d, err
	}
	if d.Amount, err = parseAmount(form.Get("amount")); err != nil {
		return d, err
	}
	return d, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if isNegative(s) {
		return decimal.Zero, core.ErrNegativeAmount
	}
	d, err := core.ParseDecimal(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("Invalid amount %q: %w", strings.TrimSpace(s), err)
	}
	return d, nil
}

func parseQuantity(s string) (decimal.Decimal, error) {
	if isNegative(s) {
		return decimal.Zero, core.ErrNegativeQuantity
	}
	d, err := core.ParseDecimal(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("Invalid quantity %q: %w", strings.TrimSpace(s), err)
	}
	return d, nil
}

func isNegative(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "-")
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
