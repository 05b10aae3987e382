package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind describes what a cell holds.
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindString
)

// Value is a scalar cell. Missing is distinct from 0 and from "".
type Value struct {
	kind Kind
	num  float64
	text string
}

// Number returns a numeric cell.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// String returns a text cell. An empty string is a valid, non-missing value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Missing returns the missing marker.
func Missing() Value { return Value{} }

var missingMarkers = map[string]bool{
	"": true, "na": true, "n/a": true, "null": true, "nan": true, "-": true, "none": true,
}

// FromText converts raw uploaded text into a cell, keeping the original text
// for display and substring matching.
func FromText(raw string) Value {
	s := strings.TrimSpace(raw)
	if missingMarkers[strings.ToLower(s)] {
		return Missing()
	}
	if f, ok := ParseNumber(s); ok {
		return Value{kind: KindNumber, num: f, text: s}
	}
	return Value{kind: KindString, text: s}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsMissing() bool   { return v.kind == KindMissing }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) String() string    { return v.text }
func (v Value) Equal(o Value) bool { return v.kind == o.kind && v.text == o.text && v.num == o.num }

// Float reports the numeric reading of the cell. Text cells that pass the
// permissive numeric check count as numbers; missing cells never do.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		return ParseNumber(v.text)
	}
	return 0, false
}

// Any returns the value as a JSON-friendly Go value.
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.text
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.Any()) }

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// FromAny converts a decoded JSON scalar into a cell.
func FromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Missing()
	case float64:
		return Number(x)
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case bool:
		return String(strconv.FormatBool(x))
	case string:
		// JSON strings are kept as text; "" stays a valid empty string.
		if x == "" {
			return String("")
		}
		return FromText(x)
	default:
		return String(fmt.Sprint(x))
	}
}
