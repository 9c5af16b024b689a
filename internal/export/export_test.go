package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docproc/internal/domain"
)

func sampleItems() []domain.LineItem {
	return []domain.LineItem{
		{LineNumber: 1, ProductCode: "W-1", Description: "Widget, large", Quantity: 2, UnitPrice: 5,
			UnitType: "each", TotalPrice: 10, MatchedProductID: "P1"},
		{LineNumber: 2, Description: "Bolt", Quantity: 0.5, UnitPrice: 1.5,
			UnitType: "kg", TotalPrice: 0.75, MatchedProductID: domain.NoMatch},
	}
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)

	assert.Len(t, row, 9)
	assert.Equal(t, "Line", row[0])
	assert.Equal(t, "Matched Product", row[8])
}

func TestWriteItems(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteItems(sampleItems()))
	w.Flush()

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"1", "W-1", "", "Widget, large", "2", "5.00", "each", "10.00", "P1"}, rows[0])
	assert.Equal(t, "0.5", rows[1][4])
	assert.Equal(t, "0.75", rows[1][7])
	assert.Equal(t, domain.NoMatch, rows[1][8])
}

func TestRender_CSV(t *testing.T) {
	doc := &domain.Document{Filename: "March invoice.pdf"}

	f, err := Render(doc, sampleItems(), domain.ExportFormatCSV)

	require.NoError(t, err)
	assert.Equal(t, "March_invoice_line_items.csv", f.Filename)
	assert.Equal(t, ContentTypeCSV, f.ContentType)
	assert.True(t, bytes.HasPrefix(f.Data, BOM))

	rows, err := csv.NewReader(bytes.NewReader(f.Data[len(BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRender_CSVNoItems(t *testing.T) {
	f, err := Render(&domain.Document{Filename: "a.pdf"}, nil, domain.ExportFormatCSV)

	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(f.Data[len(BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRender_XLSX(t *testing.T) {
	f, err := Render(&domain.Document{Filename: "inv.png"}, sampleItems(), domain.ExportFormatXLSX)

	require.NoError(t, err)
	assert.Equal(t, "inv_line_items.xlsx", f.Filename)
	assert.Equal(t, ContentTypeXLSX, f.ContentType)

	wb, err := excelize.OpenReader(bytes.NewReader(f.Data))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	rows, err := wb.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Description", rows[0][3])
	assert.Equal(t, "Widget, large", rows[1][3])
	assert.Equal(t, "10", rows[1][7])
	assert.Equal(t, "P1", rows[1][8])
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(&domain.Document{}, nil, domain.ExportFormat("pdf"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrUnsupportedExportFormat)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, domain.ExportFormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, domain.ExportFormatXLSX, f)

	_, err = ParseFormat("json")
	assert.ErrorIs(t, err, domain.ErrUnsupportedExportFormat)
	assert.NotErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, `format "json"; allowed: csv, xlsx`, domain.DetailOf(err))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Invoice 2025", "Invoice_2025"},
		{"a//b??c", "a_b_c"},
		{"__x__", "x"},
		{"***", "document"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeFilename(tt.input), tt.input)
	}
}
