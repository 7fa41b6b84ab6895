// Package validation turns JSON request payloads into model structs and
// checks them against their struct tags. Every failure is reported as a
// domain validation error naming the offending JSON fields.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"realestate-crm/internal/core/domain"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
	"gorm.io/datatypes"
)

// DefaultPhoneRegion is used when no region is configured
const DefaultPhoneRegion = "TR"

var quotedField = regexp.MustCompile(`'([^']*)'`)

// Validator decodes and validates payloads
type Validator struct {
	validate    *validator.Validate
	phoneRegion string
}

// New creates a validator. Phone numbers without a country prefix are
// parsed as numbers of phoneRegion.
func New(phoneRegion string) *Validator {
	if phoneRegion == "" {
		phoneRegion = DefaultPhoneRegion
	}

	v := &Validator{
		validate:    validator.New(),
		phoneRegion: phoneRegion,
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.validate.RegisterValidation("phone", v.validPhone)

	return v
}

func (v *Validator) validPhone(fl validator.FieldLevel) bool {
	return ValidatePhone(fl.Field().String(), v.phoneRegion) == nil
}

// ValidatePhone checks that number is a valid phone number for region
func ValidatePhone(number, region string) error {
	p, err := libphonenumber.Parse(number, region)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}

// ParseObject reads a JSON object body. Numbers are kept as json.Number so
// money values reach decimal.Decimal without a float round trip.
func ParseObject(body []byte) (domain.Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.Payload{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload domain.Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, domain.Validation("request body must be a JSON object")
	}
	if payload == nil {
		payload = domain.Payload{}
	}
	return payload, nil
}

// Decode copies payload onto target field by field. Keys absent from the
// payload leave the target untouched; an explicit null clears the field.
func (v *Validator) Decode(payload domain.Payload, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		ZeroFields: true,
		Result:     target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			decimalHook,
			timeHook,
			jsonHook,
		),
	})
	if err != nil {
		return domain.Internal(err)
	}

	if err := decoder.Decode(map[string]interface{}(payload)); err != nil {
		return decodeError(err)
	}
	return nil
}

// Struct validates target against its validate tags
func (v *Validator) Struct(target interface{}) error {
	err := v.validate.Struct(target)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return domain.Validation("invalid or missing fields", fields...)
}

// DecodeAndValidate runs Decode then Struct
func (v *Validator) DecodeAndValidate(payload domain.Payload, target interface{}) error {
	if err := v.Decode(payload, target); err != nil {
		return err
	}
	return v.Struct(target)
}

func decodeError(err error) error {
	var merr *mapstructure.Error
	if !errors.As(err, &merr) {
		return domain.Validation(err.Error())
	}

	fields := make([]string, 0, len(merr.Errors))
	for _, msg := range merr.Errors {
		if m := quotedField.FindStringSubmatch(msg); m != nil {
			fields = append(fields, m[1])
		}
	}
	return domain.Validation("fields have the wrong type or format", fields...)
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
	jsonType    = reflect.TypeOf(datatypes.JSON{})
)

func decimalHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != decimalType {
		return data, nil
	}

	switch d := data.(type) {
	case decimal.Decimal:
		return boundedDecimal(d)
	case json.Number:
		return parseDecimal(d.String())
	case string:
		return parseDecimal(d)
	case float64:
		return boundedDecimal(decimal.NewFromFloat(d))
	case int:
		return boundedDecimal(decimal.NewFromInt(int64(d)))
	case int64:
		return boundedDecimal(decimal.NewFromInt(d))
	}
	return nil, fmt.Errorf("expected a number, got %s", from)
}

// Money columns are decimal(15,2). Larger inputs are refused before any
// arithmetic runs on them.
var maxDecimal = decimal.RequireFromString("9999999999999.99")

const (
	maxDecimalText     = 64
	maxDecimalExponent = 20
)

var errDecimalRange = fmt.Errorf("number must be within -%s and %s", maxDecimal, maxDecimal)

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxDecimalText {
		return decimal.Decimal{}, errDecimalRange
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return boundedDecimal(d)
}

func boundedDecimal(d decimal.Decimal) (decimal.Decimal, error) {
	// exponent first: comparing 1e40000000 with maxDecimal would expand it
	if exp := d.Exponent(); exp > maxDecimalExponent || exp < -maxDecimalExponent {
		return decimal.Decimal{}, errDecimalRange
	}
	if d.Abs().GreaterThan(maxDecimal) {
		return decimal.Decimal{}, errDecimalRange
	}
	return d, nil
}

func timeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timeType {
		return data, nil
	}

	s, ok := data.(string)
	if !ok {
		if t, ok := data.(time.Time); ok {
			return t, nil
		}
		return nil, fmt.Errorf("expected an RFC3339 timestamp, got %s", from)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func jsonHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != jsonType {
		return data, nil
	}
	if raw, ok := data.(datatypes.JSON); ok {
		return raw, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
