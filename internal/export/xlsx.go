package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"docproc/internal/domain"
)

const sheetName = "Line Items"

// WriteXLSX renders items as a single-sheet workbook and returns its bytes.
// Numeric columns are stored as numbers so spreadsheets can sum them.
func WriteXLSX(items []domain.LineItem) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for r := range items {
		it := &items[r]
		row := r + 2
		values := []interface{}{
			it.LineNumber,
			it.ProductCode,
			it.ManufacturerCode,
			it.Description,
			it.Quantity,
			it.UnitPrice,
			it.UnitType,
			it.TotalPrice,
			it.MatchedProductID,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 6)
	_ = f.SetColWidth(sheetName, "B", "C", 18)
	_ = f.SetColWidth(sheetName, "D", "D", 48)
	_ = f.SetColWidth(sheetName, "E", "H", 12)
	_ = f.SetColWidth(sheetName, "I", "I", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
