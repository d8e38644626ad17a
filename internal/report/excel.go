// Package report renders the final batch as an XLSX spreadsheet.
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"banreport/internal/domain"
)

const (
	sheetName     = "IP Report"
	columnPadding = 6
)

var headers = []string{"IP Address", "Country", "City", "Provider"}

// Writer writes one spreadsheet per run to a fixed output path.
type Writer struct {
	outputPath string
}

func NewWriter(outputPath string) (*Writer, error) {
	trimmed := strings.TrimSpace(outputPath)
	if trimmed == "" {
		return nil, fmt.Errorf("report output path is required")
	}
	return &Writer{outputPath: trimmed}, nil
}

// Write renders one header row plus one row per record, in the order given.
// Failed records keep their key with empty metadata columns so operators can
// retry them manually.
func (w *Writer) Write(records []domain.Record) error {
	if w == nil {
		return fmt.Errorf("report writer is not initialized")
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name report sheet: %w", err)
	}

	if err := w.writeHeader(f); err != nil {
		return err
	}
	if err := w.writeRows(f, records); err != nil {
		return err
	}
	if err := w.sizeColumns(f, records); err != nil {
		return err
	}

	lastCell, err := excelize.CoordinatesToCellName(len(headers), len(records)+1)
	if err != nil {
		return fmt.Errorf("failed to compute filter range: %w", err)
	}
	if err := f.AutoFilter(sheetName, "A1:"+lastCell, nil); err != nil {
		return fmt.Errorf("failed to set auto-filter: %w", err)
	}

	if err := f.SaveAs(w.outputPath); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", w.outputPath, err)
	}
	return nil
}

func (w *Writer) OutputPath() string {
	if w == nil {
		return ""
	}
	return w.outputPath
}

func (w *Writer) writeHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header %q: %w", header, err)
		}
	}

	lastHeaderCell, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("failed to compute header range: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastHeaderCell, style); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}
	return nil
}

func (w *Writer) writeRows(f *excelize.File, records []domain.Record) error {
	for rowIdx, record := range records {
		values := rowValues(record)
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell for row %d: %w", rowIdx+2, err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
			}
		}
	}
	return nil
}

func (w *Writer) sizeColumns(f *excelize.File, records []domain.Record) error {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, record := range records {
		for i, value := range rowValues(record) {
			if len(value) > widths[i] {
				widths[i] = len(value)
			}
		}
	}

	for i := range headers {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to compute column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, float64(widths[i]+columnPadding)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	return nil
}

func rowValues(record domain.Record) []string {
	return []string{record.Key, record.Country, record.City, record.Provider}
}
