package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Delivery is one submission of the admin entry form. A truck may carry
// several aggregate types, so the form has one quantity per type and
// expands into one Record per non-zero quantity.
type Delivery struct {
	SaleDate      time.Time
	CompanyName   string `validate:"required"`
	DriverName    string
	PlateNumber   string
	Hauler        string
	CashPONumber  string
	DRISInvNumber string
	LoadedBy      string
	Amount        decimal.Decimal `validate:"gte=0"`
	PaymentType   PaymentType     `validate:"oneof=CASH ACCOUNTS_RECEIVABLE"`

	S1           decimal.Decimal `validate:"gte=0"`
	G1           decimal.Decimal `validate:"gte=0"`
	ThreeFourths decimal.Decimal `validate:"gte=0"`
	ThreeEighths decimal.Decimal `validate:"gte=0"`
	Mix          decimal.Decimal `validate:"gte=0"`
}

// Quantities lists the per-type quantities in tally column order.
func (d Delivery) Quantities() []TypeQuantity {
	return []TypeQuantity{
		{Type: TypeS1, Quantity: d.S1},
		{Type: TypeG1, Quantity: d.G1},
		{Type: TypeThreeFourths, Quantity: d.ThreeFourths},
		{Type: TypeThreeEighths, Quantity: d.ThreeEighths},
		{Type: TypeMix, Quantity: d.Mix},
	}
}

type TypeQuantity struct {
	Type     string
	Quantity decimal.Decimal
}

// Validate checks the form before anything is sent to the store.
func (d Delivery) Validate() error {
	d.CompanyName = strings.TrimSpace(d.CompanyName)
	err := validateStruct(d)

	hasQty := false
	for _, q := range d.Quantities() {
		if q.Quantity.IsPositive() {
			hasQty = true
			break
		}
	}
	if !hasQty {
		err = errors.Join(err, ErrNoQuantity)
	}
	return err
}

// Expand turns the form into records, one per positive quantity, sharing
// every other attribute. Each row carries the full form amount.
func (d Delivery) Expand(newID func() string) []Record {
	var out []Record
	for _, q := range d.Quantities() {
		if !q.Quantity.IsPositive() {
			continue
		}
		out = append(out, Record{
			ID:                newID(),
			SaleDate:          d.SaleDate,
			CompanyName:       strings.TrimSpace(d.CompanyName),
			AggregateType:     q.Type,
			AggregateQuantity: q.Quantity,
			DriverName:        d.DriverName,
			PlateNumber:       d.PlateNumber,
			Hauler:            d.Hauler,
			CashPONumber:      d.CashPONumber,
			DRISInvNumber:     d.DRISInvNumber,
			LoadedBy:          d.LoadedBy,
			Amount:            d.Amount,
			PaymentType:       d.PaymentType,
		})
	}
	return out
}
