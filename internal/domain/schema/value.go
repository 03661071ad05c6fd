package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateLayout is the canonical layout for date values without a time part.
const DateLayout = "2006-01-02"

// Value is a typed field value. The zero Value is null.
type Value struct {
	kind   FieldType
	text   string
	number float64
	date   time.Time
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: TypeText, text: s} }

// Categorical returns a categorical value.
func Categorical(s string) Value { return Value{kind: TypeCategorical, text: s} }

// Number returns a number value.
func Number(f float64) Value { return Value{kind: TypeNumber, number: f} }

// Date returns a date value normalized to UTC.
func Date(t time.Time) Value { return Value{kind: TypeDate, date: t.UTC()} }

// Kind returns the value's type, or "" for null.
func (v Value) Kind() FieldType { return v.kind }

// IsNull reports whether v carries no value.
func (v Value) IsNull() bool { return v.kind == "" }

// IsEmpty reports whether v counts as unfilled. Zero numbers are filled.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case "":
		return true
	case TypeText, TypeCategorical:
		return v.text == ""
	}
	return false
}

// AsText returns the payload of a text or categorical value.
func (v Value) AsText() (string, bool) {
	if v.kind == TypeText || v.kind == TypeCategorical {
		return v.text, true
	}
	return "", false
}

// AsNumber returns the payload of a number value.
func (v Value) AsNumber() (float64, bool) {
	return v.number, v.kind == TypeNumber
}

// AsDate returns the payload of a date value.
func (v Value) AsDate() (time.Time, bool) {
	return v.date, v.kind == TypeDate
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case TypeNumber:
		return v.number == o.number
	case TypeDate:
		return v.date.Equal(o.date)
	}
	return v.text == o.text
}

// Canonical returns the storage encoding of the payload.
func (v Value) Canonical() string {
	switch v.kind {
	case TypeNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case TypeDate:
		if v.date.Equal(v.date.Truncate(24 * time.Hour)) {
			return v.date.Format(DateLayout)
		}
		return v.date.Format(time.RFC3339Nano)
	}
	return v.text
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == "" {
		return "<null>"
	}
	return v.Canonical()
}

// Decode rebuilds a value from its kind and canonical encoding.
func Decode(kind FieldType, canonical string) (Value, error) {
	switch kind {
	case "":
		return Value{}, nil
	case TypeText:
		return Text(canonical), nil
	case TypeCategorical:
		return Categorical(canonical), nil
	case TypeNumber:
		f, err := parseNumber(canonical)
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case TypeDate:
		t, err := parseDate(canonical)
		if err != nil {
			return Value{}, err
		}
		return Date(t), nil
	}
	return Value{}, ErrUnknownKind.WithDetails(string(kind))
}

type wireValue struct {
	Type  FieldType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes v as {"type": ..., "value": ...}, or null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == "" {
		return []byte("null"), nil
	}
	var payload any
	switch v.kind {
	case TypeNumber:
		payload = v.number
	default:
		payload = v.Canonical()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Type: v.kind, Value: raw})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type == TypeNumber {
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return fmt.Errorf("decoding number value: %w", err)
		}
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(w.Value, &s); err != nil {
		return fmt.Errorf("decoding %s value: %w", w.Type, err)
	}
	decoded, err := Decode(w.Type, s)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotNumber.WithDetails(fmt.Sprintf("got %q", s))
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrNotDate.WithDetails(fmt.Sprintf("got %q", s))
}
