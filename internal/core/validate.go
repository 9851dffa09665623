package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match the API payload.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Money fields are validated as their float value (gte=0 etc).
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		d, ok := f.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		fl, _ := d.Float64()
		return fl
	}, decimal.Decimal{})

	return v
}

// validateStruct runs the struct tags and converts failures into a *ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation setup: %w", err)
	}
	ve := &ValidationError{}
	for _, fe := range fieldErrs {
		ve.Problems = append(ve.Problems, describeFieldError(fe))
	}
	return ve
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	case "gte":
		if fe.Param() == "0" {
			return field + " cannot be negative"
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return field + " must be a valid email"
	case "http_url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// mergeProblems folds extra problems into err, creating a ValidationError when err is nil.
func mergeProblems(err error, extra ...string) error {
	if len(extra) == 0 {
		return err
	}
	var ve *ValidationError
	if err == nil {
		return &ValidationError{Problems: extra}
	}
	if errors.As(err, &ve) {
		ve.Problems = append(ve.Problems, extra...)
		return ve
	}
	return err
}

// maxMoney is the largest amount a NUMERIC(14,2) column stores.
var maxMoney = decimal.RequireFromString("999999999999.99")

// moneyProblems rejects amounts the money columns would round or overflow, so stored
// totals always equal the sum of their stored parts.
func moneyProblems(field string, amount decimal.Decimal) []string {
	var problems []string
	if !amount.Equal(amount.Round(2)) {
		problems = append(problems, field+" cannot have more than 2 decimal places")
	}
	if amount.GreaterThan(maxMoney) {
		problems = append(problems, field+" cannot exceed "+maxMoney.String())
	}
	return problems
}
