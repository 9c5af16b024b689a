package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultUnitType is used when the extraction capability omits a unit.
	DefaultUnitType = "each"
	// NoMatch marks a line item the matching capability explicitly declined to match.
	NoMatch = "NO_MATCH"
)

// Raw record field names as produced by the extraction capability.
const (
	FieldProductCode      = "product_code"
	FieldManufacturerCode = "manufacturer_code"
	FieldDescription      = "description"
	FieldQuantity         = "quantity"
	FieldUnitPrice        = "unit_price"
	FieldUnitType         = "unit_type"
)

// RawLineItem is an untyped record from the extraction capability. Any field
// may be missing or null.
type RawLineItem map[string]interface{}

// NormalizeLineItems normalizes raw records in order, numbering them from 1.
func NormalizeLineItems(raws []RawLineItem) ([]LineItem, error) {
	items := make([]LineItem, 0, len(raws))
	for i, raw := range raws {
		item, err := NormalizeLineItem(raw, i+1)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// NormalizeLineItem fills defaults and derives the total for a single record.
// position is the 1-based line number.
func NormalizeLineItem(raw RawLineItem, position int) (LineItem, error) {
	var item LineItem
	var err error

	if item.ProductCode, err = stringField(raw, FieldProductCode); err != nil {
		return LineItem{}, err
	}
	if item.ManufacturerCode, err = stringField(raw, FieldManufacturerCode); err != nil {
		return LineItem{}, err
	}
	if item.Description, err = stringField(raw, FieldDescription); err != nil {
		return LineItem{}, err
	}
	if item.UnitType, err = stringField(raw, FieldUnitType); err != nil {
		return LineItem{}, err
	}
	if item.UnitType == "" {
		item.UnitType = DefaultUnitType
	}
	if item.Quantity, err = numberField(raw, FieldQuantity); err != nil {
		return LineItem{}, err
	}
	if item.UnitPrice, err = numberField(raw, FieldUnitPrice); err != nil {
		return LineItem{}, err
	}

	item.LineNumber = position
	item.TotalPrice = item.UnitPrice * item.Quantity
	return item, nil
}

// Validate checks the shape of a caller-supplied line item. It never
// recomputes the total.
func (li *LineItem) Validate() error {
	if li.LineNumber < 1 {
		return &ValidationError{Field: "line_number", Value: li.LineNumber, Reason: "must be 1 or greater"}
	}
	if err := checkAmount(FieldQuantity, li.Quantity); err != nil {
		return err
	}
	if err := checkAmount(FieldUnitPrice, li.UnitPrice); err != nil {
		return err
	}
	return checkAmount("total_price", li.TotalPrice)
}

// Query returns the matching query for the item. Only description and
// quantity participate in matching.
func (li *LineItem) Query() MatchQuery {
	return MatchQuery{Description: li.Description, Quantity: li.Quantity}
}

func stringField(raw RawLineItem, field string) (string, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", &ValidationError{Field: field, Value: v, Reason: "not a scalar value"}
	}
}

func numberField(raw RawLineItem, field string) (float64, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return 0, nil
	}

	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, &ValidationError{Field: field, Value: v, Reason: "not a number"}
		}
		f = parsed
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ValidationError{Field: field, Value: v, Reason: "not a number"}
		}
		f = parsed
	default:
		return 0, &ValidationError{Field: field, Value: v, Reason: "not a number"}
	}

	if err := checkAmount(field, f); err != nil {
		return 0, err
	}
	return f, nil
}

func checkAmount(field string, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &ValidationError{Field: field, Value: f, Reason: "not a finite number"}
	}
	if f < 0 {
		return &ValidationError{Field: field, Value: f, Reason: "must not be negative"}
	}
	return nil
}
