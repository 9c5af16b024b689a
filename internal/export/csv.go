// Package export renders a document's line items as CSV or XLSX.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"docproc/internal/domain"
)

// BOM is written ahead of CSV output so Excel on Windows reads it as UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row shared by both formats.
var columns = []string{
	"Line",
	"Product Code",
	"Manufacturer Code",
	"Description",
	"Quantity",
	"Unit Price",
	"Unit Type",
	"Total Price",
	"Matched Product",
}

// Writer wraps csv.Writer for exporting line items as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteItems converts line items to CSV rows and writes them.
func (w *Writer) WriteItems(items []domain.LineItem) error {
	for i := range items {
		if err := w.csv.Write(itemToRow(&items[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func itemToRow(it *domain.LineItem) []string {
	return []string{
		strconv.Itoa(it.LineNumber),
		it.ProductCode,
		it.ManufacturerCode,
		it.Description,
		formatNumber(it.Quantity),
		formatMoney(it.UnitPrice),
		it.UnitType,
		formatMoney(it.TotalPrice),
		it.MatchedProductID,
	}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
