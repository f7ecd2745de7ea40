package http

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

func TestParseViewParams(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		values url.Values
		period core.Period
		date   string
		tab    string
		page   int
	}{
		{"defaults", url.Values{}, core.Daily, "2024-03-05", TabOverview, 1},
		{"all values", url.Values{"period": {"MONTHLY"}, "date": {"2023-12-31"}, "tab": {"reports"}, "page": {"3"}}, core.Monthly, "2023-12-31", TabReports, 3},
		{"unknown values fall back", url.Values{"period": {"weekly"}, "date": {"31/12/2023"}, "tab": {"settings"}, "page": {"x"}}, core.Daily, "2024-03-05", TabOverview, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseViewParams(tt.values, now)
			if v.Period != tt.period || v.DateValue() != tt.date || v.Tab != tt.tab || v.Page != tt.page {
				t.Fatalf("got %+v", v)
			}
		})
	}
}

func TestViewParamsQuery(t *testing.T) {
	v := ViewParams{Period: core.Yearly, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Tab: TabReports}
	if got := v.Query(2); got != "date=2024-01-02&page=2&period=yearly&tab=reports" {
		t.Fatalf("Query(2) = %q", got)
	}
	if got := v.Query(0); got != "date=2024-01-02&period=yearly&tab=reports" {
		t.Fatalf("Query(0) = %q", got)
	}
}

func TestParseDelivery(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	form := url.Values{
		"company_name":      {"  FOUR N\x00 "},
		"payment_type":      {"accounts_receivable"},
		"amount":            {"₱1,400.50"},
		"s1_qty":            {"2"},
		"three_fourths_qty": {"0.5"},
	}
	d, err := ParseDelivery(form, now)
	if err != nil {
		t.Fatalf("ParseDelivery: %v", err)
	}
	if d.CompanyName != "FOUR N" {
		t.Fatalf("company=%q", d.CompanyName)
	}
	if !d.SaleDate.Equal(now) {
		t.Fatalf("blank date should default to now, got %v", d.SaleDate)
	}
	if d.PaymentType != core.AccountsReceivable {
		t.Fatalf("payment=%q", d.PaymentType)
	}
	if !d.Amount.Equal(decimal.RequireFromString("1400.50")) {
		t.Fatalf("amount=%s", d.Amount)
	}
	if !d.S1.Equal(decimal.NewFromInt(2)) || !d.ThreeFourths.Equal(decimal.RequireFromString("0.5")) || !d.Mix.IsZero() {
		t.Fatalf("quantities S1=%s 3/4=%s Mix=%s", d.S1, d.ThreeFourths, d.Mix)
	}

	form.Set("sale_date", "2024-02-29")
	d, err = ParseDelivery(form, now)
	if err != nil || d.SaleDate.Format(time.DateOnly) != "2024-02-29" {
		t.Fatalf("sale_date not applied: %v %v", d.SaleDate, err)
	}
}

func TestParseDeliveryErrors(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		field  string
		value  string
		target error
	}{
		{"bad date", "sale_date", "yesterday", nil},
		{"bad amount", "amount", "abc", nil},
		{"negative amount", "amount", "-1", core.ErrNegativeAmount},
		{"negative quantity", "g1_qty", " -2", core.ErrNegativeQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDelivery(url.Values{tt.field: {tt.value}}, now)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Fatalf("err=%v, want %v", err, tt.target)
			}
		})
	}
}

func TestParseDraft(t *testing.T) {
	d, err := ParseDraft(url.Values{
		"aggregate_type":     {"g-1"},
		"aggregate_quantity": {"3.25"},
		"amount":             {"900"},
		"payment_type":       {"CASH"},
		"driver_name":        {" Ben "},
	})
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if d.AggregateType != "g-1" || d.DriverName != "Ben" || !d.AggregateQuantity.Equal(decimal.RequireFromString("3.25")) {
		t.Fatalf("got %+v", d)
	}

	if _, err := ParseDraft(url.Values{"aggregate_quantity": {"-1"}}); !errors.Is(err, core.ErrNegativeQuantity) {
		t.Fatalf("err=%v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  plain  ":    "plain",
		"bell\x07here": "bellhere",
		"tab\tkept":    "tab\tkept",
		"":             "",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Fatalf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
