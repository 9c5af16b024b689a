package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproc/internal/domain"
)

func TestNormalizeLineItem_AllFieldsPresent(t *testing.T) {
	raw := domain.RawLineItem{
		"product_code":      "PC-1",
		"manufacturer_code": "MC-9",
		"description":       "Widget",
		"quantity":          json.Number("2"),
		"unit_price":        json.Number("5"),
		"unit_type":         "box",
	}

	item, err := domain.NormalizeLineItem(raw, 1)

	require.NoError(t, err)
	assert.Equal(t, 1, item.LineNumber)
	assert.Equal(t, "PC-1", item.ProductCode)
	assert.Equal(t, "MC-9", item.ManufacturerCode)
	assert.Equal(t, "Widget", item.Description)
	assert.Equal(t, 2.0, item.Quantity)
	assert.Equal(t, 5.0, item.UnitPrice)
	assert.Equal(t, "box", item.UnitType)
	assert.Equal(t, 10.0, item.TotalPrice)
	assert.Equal(t, "", item.MatchedProductID)
}

func TestNormalizeLineItem_MissingFieldsDefault(t *testing.T) {
	item, err := domain.NormalizeLineItem(domain.RawLineItem{}, 3)

	require.NoError(t, err)
	assert.Equal(t, 3, item.LineNumber)
	assert.Equal(t, "", item.ProductCode)
	assert.Equal(t, "", item.ManufacturerCode)
	assert.Equal(t, "", item.Description)
	assert.Equal(t, 0.0, item.Quantity)
	assert.Equal(t, 0.0, item.UnitPrice)
	assert.Equal(t, domain.DefaultUnitType, item.UnitType)
	assert.Equal(t, 0.0, item.TotalPrice)
	assert.Equal(t, "", item.MatchedProductID)
}

func TestNormalizeLineItem_NullFieldsDefault(t *testing.T) {
	raw := domain.RawLineItem{
		"description": nil,
		"quantity":    nil,
		"unit_price":  nil,
		"unit_type":   nil,
	}

	item, err := domain.NormalizeLineItem(raw, 1)

	require.NoError(t, err)
	assert.Equal(t, 0.0, item.TotalPrice)
	assert.Equal(t, domain.DefaultUnitType, item.UnitType)
}

func TestNormalizeLineItem_TotalIsUnitPriceTimesQuantity(t *testing.T) {
	cases := []struct {
		name      string
		quantity  interface{}
		unitPrice interface{}
		want      float64
	}{
		{"integers", json.Number("3"), json.Number("4"), 12},
		{"decimals", json.Number("1.5"), json.Number("2.5"), 3.75},
		{"numeric strings", " 2 ", "7.25", 14.5},
		{"empty string quantity", "", json.Number("9"), 0},
		{"missing unit price", json.Number("8"), nil, 0},
		{"float64 values", 2.0, 0.5, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item, err := domain.NormalizeLineItem(domain.RawLineItem{
				"quantity":   tc.quantity,
				"unit_price": tc.unitPrice,
			}, 1)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, item.TotalPrice, 1e-9)
			assert.InDelta(t, item.UnitPrice*item.Quantity, item.TotalPrice, 1e-9)
		})
	}
}

func TestNormalizeLineItem_NonNumericQuantity(t *testing.T) {
	_, err := domain.NormalizeLineItem(domain.RawLineItem{"quantity": "two"}, 1)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "quantity", vErr.Field)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalizeLineItem_NonNumericUnitPrice(t *testing.T) {
	_, err := domain.NormalizeLineItem(domain.RawLineItem{"unit_price": true}, 1)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "unit_price", vErr.Field)
}

func TestNormalizeLineItem_NegativeAmountRejected(t *testing.T) {
	_, err := domain.NormalizeLineItem(domain.RawLineItem{"quantity": json.Number("-1")}, 1)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "quantity", vErr.Field)
}

func TestNormalizeLineItem_ObjectDescriptionRejected(t *testing.T) {
	_, err := domain.NormalizeLineItem(domain.RawLineItem{
		"description": map[string]interface{}{"text": "Widget"},
	}, 1)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "description", vErr.Field)
}

func TestNormalizeLineItem_NumericCodeRendered(t *testing.T) {
	item, err := domain.NormalizeLineItem(domain.RawLineItem{"product_code": json.Number("12345")}, 1)

	require.NoError(t, err)
	assert.Equal(t, "12345", item.ProductCode)
}

func TestNormalizeLineItems_AssignsLineNumbersInOrder(t *testing.T) {
	raws := []domain.RawLineItem{
		{"description": "first"},
		{"description": "second"},
		{"description": "third"},
	}

	items, err := domain.NormalizeLineItems(raws)

	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, i+1, item.LineNumber)
	}
	assert.Equal(t, "second", items[1].Description)
}

func TestNormalizeLineItems_Empty(t *testing.T) {
	items, err := domain.NormalizeLineItems(nil)

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestNormalizeLineItems_StopsAtFirstInvalidRecord(t *testing.T) {
	raws := []domain.RawLineItem{
		{"quantity": json.Number("1")},
		{"unit_price": "abc"},
	}

	items, err := domain.NormalizeLineItems(raws)

	assert.Nil(t, items)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, "record 2")
}

func TestLineItem_Validate(t *testing.T) {
	valid := domain.LineItem{LineNumber: 1, Quantity: 2, UnitPrice: 5, TotalPrice: 10}
	assert.NoError(t, valid.Validate())

	zeroLine := valid
	zeroLine.LineNumber = 0
	assert.ErrorIs(t, zeroLine.Validate(), domain.ErrValidation)

	negative := valid
	negative.UnitPrice = -1
	assert.ErrorIs(t, negative.Validate(), domain.ErrInvalidInput)
}

func TestLineItem_ValidateDoesNotRecomputeTotal(t *testing.T) {
	item := domain.LineItem{LineNumber: 1, Quantity: 3, UnitPrice: 5, TotalPrice: 10}

	require.NoError(t, item.Validate())
	assert.Equal(t, 10.0, item.TotalPrice)
}

func TestLineItem_QueryUsesDescriptionAndQuantity(t *testing.T) {
	item := domain.LineItem{
		LineNumber:  4,
		ProductCode: "PC",
		Description: "Widget",
		Quantity:    2,
		UnitType:    "box",
	}

	assert.Equal(t, domain.MatchQuery{Description: "Widget", Quantity: 2}, item.Query())
}
