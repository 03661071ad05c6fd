package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/metafirst/supervisor/internal/failure"
)

// Coerce converts a raw input into a Value of def's type. nil and the empty
// string produce the null Value, which clears a stored field.
func Coerce(def FieldDefinition, raw any) (Value, error) {
	if raw == nil {
		return Value{}, nil
	}
	if s, ok := raw.(string); ok && s == "" {
		return Value{}, nil
	}
	if v, ok := raw.(Value); ok {
		if v.IsNull() {
			return v, nil
		}
		raw = v.interfaceValue()
	}

	var (
		v   Value
		err error
	)
	switch def.Type {
	case TypeText:
		v, err = coerceText(raw)
	case TypeNumber:
		v, err = coerceNumber(raw)
	case TypeDate:
		v, err = coerceDate(raw)
	case TypeCategorical:
		v, err = coerceCategorical(def, raw)
	default:
		err = ErrUnknownKind.WithDetails(string(def.Type))
	}
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) {
			return Value{}, fe.WithField(def.Key)
		}
		return Value{}, err
	}
	return v, nil
}

func (v Value) interfaceValue() any {
	switch v.kind {
	case TypeNumber:
		return v.number
	case TypeDate:
		return v.date
	}
	return v.text
}

func coerceText(raw any) (Value, error) {
	s, ok := raw.(string)
	if !ok {
		return Value{}, ErrNotText.WithDetails(fmt.Sprintf("got %T", raw))
	}
	return Text(s), nil
}

func coerceNumber(raw any) (Value, error) {
	switch n := raw.(type) {
	case float64:
		return finiteNumber(n)
	case float32:
		return finiteNumber(float64(n))
	case int:
		return Number(float64(n)), nil
	case int32:
		return Number(float64(n)), nil
	case int64:
		return Number(float64(n)), nil
	case json.Number:
		f, err := parseNumber(n.String())
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case string:
		f, err := parseNumber(strings.TrimSpace(n))
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	}
	return Value{}, ErrNotNumber.WithDetails(fmt.Sprintf("got %T", raw))
}

func finiteNumber(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, ErrNotNumber.WithDetails(fmt.Sprintf("got %v", f))
	}
	return Number(f), nil
}

func coerceDate(raw any) (Value, error) {
	switch d := raw.(type) {
	case time.Time:
		return Date(d), nil
	case string:
		t, err := parseDate(strings.TrimSpace(d))
		if err != nil {
			return Value{}, err
		}
		return Date(t), nil
	}
	return Value{}, ErrNotDate.WithDetails(fmt.Sprintf("got %T", raw))
}

func coerceCategorical(def FieldDefinition, raw any) (Value, error) {
	s, ok := raw.(string)
	if !ok {
		return Value{}, ErrNotAllowed.WithDetails(fmt.Sprintf("got %T", raw))
	}
	if !def.Allows(s) {
		return Value{}, ErrNotAllowed.WithDetails(fmt.Sprintf("got %q, allowed %s", s, strings.Join(def.AllowedValues, ", ")))
	}
	return Categorical(s), nil
}
