package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Cash               PaymentType = "CASH"
	AccountsReceivable PaymentType = "ACCOUNTS_RECEIVABLE"
)

// Aggregate types printed on the tally sheet, in column order.
const (
	TypeS1           = "S-1"
	TypeG1           = "G-1"
	TypeThreeFourths = "3/4"
	TypeThreeEighths = "3/8"
	TypeMix          = "Mix"
)

var AggregateTypes = []string{TypeS1, TypeG1, TypeThreeFourths, TypeThreeEighths, TypeMix}

type (
	PaymentType string

	// Record is a single delivery line as stored in the sales_records table.
	Record struct {
		ID                string
		SaleDate          time.Time
		CompanyName       string
		AggregateType     string
		AggregateQuantity decimal.Decimal // cubic meters
		DriverName        string
		PlateNumber       string
		Hauler            string
		CashPONumber      string
		DRISInvNumber     string
		LoadedBy          string
		Amount            decimal.Decimal // pesos
		PaymentType       PaymentType
	}

	// Draft holds the editable fields of a record while it is in edit mode.
	Draft struct {
		AggregateType     string
		AggregateQuantity decimal.Decimal `validate:"gte=0"`
		Amount            decimal.Decimal `validate:"gte=0"`
		PaymentType       PaymentType     `validate:"oneof=CASH ACCOUNTS_RECEIVABLE"`
		DriverName        string
		PlateNumber       string
		DRISInvNumber     string
		Hauler            string
		LoadedBy          string
		CompanyName       string
	}
)

var (
	ErrCompanyRequired    = errors.New("Company Name is required.")
	ErrNoQuantity         = errors.New("Enter quantity for at least one aggregate type.")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrNegativeQuantity   = errors.New("quantity cannot be negative")
	ErrInvalidPaymentType = errors.New("invalid payment type")
)

// Valid reports whether p is one of the two known payment types.
func (p PaymentType) Valid() bool {
	return p == Cash || p == AccountsReceivable
}

// Label is the short form shown in tables.
func (p PaymentType) Label() string {
	if p == AccountsReceivable {
		return "A/R"
	}
	return "Cash"
}

// ParsePaymentType maps form and wire values onto a PaymentType.
// Unknown input falls back to Cash.
func ParsePaymentType(s string) PaymentType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(AccountsReceivable), "AR", "A/R":
		return AccountsReceivable
	default:
		return Cash
	}
}

// SameType compares aggregate type labels case-insensitively.
func SameType(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// DraftOf copies the editable fields out of r.
func DraftOf(r Record) Draft {
	return Draft{
		AggregateType:     r.AggregateType,
		AggregateQuantity: r.AggregateQuantity,
		Amount:            r.Amount,
		PaymentType:       r.PaymentType,
		DriverName:        r.DriverName,
		PlateNumber:       r.PlateNumber,
		DRISInvNumber:     r.DRISInvNumber,
		Hauler:            r.Hauler,
		LoadedBy:          r.LoadedBy,
		CompanyName:       r.CompanyName,
	}
}

// ApplyTo returns r with the draft's fields written over it.
// ID, sale date, cash/PO number are never edited.
func (d Draft) ApplyTo(r Record) Record {
	r.AggregateType = d.AggregateType
	r.AggregateQuantity = d.AggregateQuantity
	r.Amount = d.Amount
	r.PaymentType = d.PaymentType
	r.DriverName = d.DriverName
	r.PlateNumber = d.PlateNumber
	r.DRISInvNumber = d.DRISInvNumber
	r.Hauler = d.Hauler
	r.LoadedBy = d.LoadedBy
	r.CompanyName = d.CompanyName
	return r
}

func (d Draft) Validate() error {
	return validateStruct(d)
}
