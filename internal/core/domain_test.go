package core

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}

func TestDeliveryExpand_TwoTypes(t *testing.T) {
	d := Delivery{
		SaleDate:      time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		CompanyName:   "FOUR N",
		DriverName:    "Ramon",
		PlateNumber:   "ABC 123",
		Hauler:        "FOUR N",
		CashPONumber:  "PO-1",
		DRISInvNumber: "DR-9",
		LoadedBy:      "Jun",
		Amount:        dec("1400"),
		PaymentType:   Cash,
		S1:            dec("2"),
		G1:            dec("3"),
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("expected valid delivery, got %v", err)
	}
	rows := d.Expand(seqIDs())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].AggregateType != TypeS1 || !rows[0].AggregateQuantity.Equal(dec("2")) {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].AggregateType != TypeG1 || !rows[1].AggregateQuantity.Equal(dec("3")) {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	for _, r := range rows {
		if r.CompanyName != "FOUR N" || r.DriverName != "Ramon" || r.PlateNumber != "ABC 123" ||
			r.CashPONumber != "PO-1" || r.DRISInvNumber != "DR-9" || r.LoadedBy != "Jun" ||
			!r.Amount.Equal(dec("1400")) || r.PaymentType != Cash || !r.SaleDate.Equal(d.SaleDate) {
			t.Fatalf("shared attributes not copied: %+v", r)
		}
	}
	if rows[0].ID == rows[1].ID {
		t.Fatalf("expanded rows share an id")
	}
}

func TestDeliveryValidate(t *testing.T) {
	base := Delivery{CompanyName: "RA ROQUE", PaymentType: Cash, Mix: dec("1")}

	cases := []struct {
		name string
		mut  func(*Delivery)
		want error
	}{
		{"ok", func(*Delivery) {}, nil},
		{"blank company", func(d *Delivery) { d.CompanyName = "  " }, ErrCompanyRequired},
		{"no quantity", func(d *Delivery) { d.Mix = decimal.Zero }, ErrNoQuantity},
		{"negative amount", func(d *Delivery) { d.Amount = dec("-1") }, ErrNegativeAmount},
		{"negative quantity", func(d *Delivery) { d.G1 = dec("-2") }, ErrNegativeQuantity},
		{"bad payment", func(d *Delivery) { d.PaymentType = "CHEQUE" }, ErrInvalidPaymentType},
	}
	for _, tc := range cases {
		d := base
		tc.mut(&d)
		err := d.Validate()
		if tc.want == nil {
			if err != nil {
				t.Fatalf("%s: expected ok, got %v", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestDeliveryValidate_ReportsBothFormErrors(t *testing.T) {
	err := Delivery{PaymentType: Cash}.Validate()
	if !errors.Is(err, ErrCompanyRequired) || !errors.Is(err, ErrNoQuantity) {
		t.Fatalf("expected company and quantity errors, got %v", err)
	}
}

func TestDraftApplyTo(t *testing.T) {
	r := Record{
		ID:           "7",
		SaleDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CashPONumber: "PO-7",
		Amount:       dec("100"),
		PaymentType:  Cash,
	}
	d := DraftOf(r)
	d.Amount = dec("150")
	d.PaymentType = AccountsReceivable
	d.CompanyName = "JAREB CORPORATION"

	got := d.ApplyTo(r)
	if !got.Amount.Equal(dec("150")) || got.PaymentType != AccountsReceivable || got.CompanyName != "JAREB CORPORATION" {
		t.Fatalf("draft not applied: %+v", got)
	}
	if got.ID != "7" || got.CashPONumber != "PO-7" || !got.SaleDate.Equal(r.SaleDate) {
		t.Fatalf("non-editable fields changed: %+v", got)
	}
	if !r.Amount.Equal(dec("100")) {
		t.Fatalf("original record mutated")
	}
}

func TestDraftValidate(t *testing.T) {
	if err := (Draft{PaymentType: Cash}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Draft{PaymentType: Cash, Amount: dec("-5")}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected negative amount error, got %v", err)
	}
	if err := (Draft{PaymentType: ""}).Validate(); !errors.Is(err, ErrInvalidPaymentType) {
		t.Fatalf("expected payment type error, got %v", err)
	}
}

func TestParsePaymentTypeAndPeriod(t *testing.T) {
	if ParsePaymentType("accounts_receivable") != AccountsReceivable {
		t.Fatalf("expected A/R")
	}
	if ParsePaymentType("") != Cash || ParsePaymentType("whatever") != Cash {
		t.Fatalf("expected cash default")
	}
	if ParsePeriod("QUARTERLY") != Quarterly {
		t.Fatalf("expected quarterly")
	}
	if ParsePeriod("weekly") != Daily {
		t.Fatalf("unknown period should default to daily")
	}
	if !SameType("mix", "Mix") || SameType("S-1", "G-1") {
		t.Fatalf("SameType mismatch")
	}
}
