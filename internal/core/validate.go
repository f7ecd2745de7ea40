package core

import (
	"errors"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Decimals are compared as numbers so gte/lte tags work on them.
		validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	})
	return validate
}

// validateStruct runs the struct tags of s and maps field failures onto the
// package's sentinel errors. Several failures are joined.
func validateStruct(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	var errs []error
	seen := make(map[error]bool)
	for _, fe := range fieldErrs {
		mapped := fieldError(fe)
		if seen[mapped] {
			continue
		}
		seen[mapped] = true
		errs = append(errs, mapped)
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	switch fe.Field() {
	case "CompanyName":
		return ErrCompanyRequired
	case "Amount":
		return ErrNegativeAmount
	case "PaymentType":
		return ErrInvalidPaymentType
	case "AggregateQuantity", "S1", "G1", "ThreeFourths", "ThreeEighths", "Mix":
		return ErrNegativeQuantity
	default:
		return fe
	}
}
