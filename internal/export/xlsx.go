// Package export writes search results to spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes a single-sheet workbook with a header row followed by rows.
// Each row is positional against columns; short rows leave trailing cells empty.
func WriteXLSX(w io.Writer, sheet string, columns []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Results"
	}
	// NewFile starts with "Sheet1".
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if c >= len(columns) {
				break
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("xlsx row %d: %w", r+1, err)
			}
		}
	}
	if len(columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(columns))
		_ = f.SetColWidth(sheet, "A", last, 20)
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return fmt.Errorf("xlsx panes: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// cellValue maps driver values excelize cannot render directly.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])
	default:
		return v
	}
}
