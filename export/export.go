package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/overrun115/pdf-reader-saas-mvp-sub001/extraction"
)

// WriteXLSX renders unified tables into an XLSX workbook, one sheet per
// table, and returns its bytes.
func WriteXLSX(tables []extraction.UnifiedTable) ([]byte, error) {
	f := excelize.NewFile()

	for i, table := range tables {
		sheet := fmt.Sprintf("Table %d", i+1)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
		}

		for col, header := range table.Columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(sheet, cell, header)
		}
		for r, row := range table.Rows {
			for col, value := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				_ = f.SetCellValue(sheet, cell, value)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCSV renders unified tables as CSV, header row first, with a blank
// line between consecutive tables.
func WriteCSV(tables []extraction.UnifiedTable) ([]byte, error) {
	var buf bytes.Buffer
	for i, table := range tables {
		if i > 0 {
			buf.WriteString("\n")
		}
		w := csv.NewWriter(&buf)
		if err := w.Write(table.Columns); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
		if err := w.WriteAll(table.Rows); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}
	return buf.Bytes(), nil
}
