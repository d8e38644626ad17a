package report

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"banreport/internal/domain"
)

func testRecords() []domain.Record {
	return []domain.Record{
		{Key: "10.0.0.5", Status: domain.RecordStatusFailed},
		{Key: "8.8.8.8", Country: "United States", City: "Mountain View", Provider: "Google LLC", Status: domain.RecordStatusOK},
	}
}

func TestWriterWritesHeaderAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.xlsx")
	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	if err := writer.Write(testRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close() //nolint:errcheck

	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		t.Fatalf("sheet %q missing (idx=%d, err=%v)", sheetName, idx, err)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (header + 2 records)", len(rows))
	}

	wantHeader := []string{"IP Address", "Country", "City", "Provider"}
	for i, header := range wantHeader {
		if rows[0][i] != header {
			t.Fatalf("header[%d] = %q, want %q", i, rows[0][i], header)
		}
	}

	// Failed record keeps its key with empty metadata.
	if rows[1][0] != "10.0.0.5" {
		t.Fatalf("row 2 ip = %q, want 10.0.0.5", rows[1][0])
	}
	for col := 1; col < len(rows[1]); col++ {
		if rows[1][col] != "" {
			t.Fatalf("row 2 col %d = %q, want empty", col, rows[1][col])
		}
	}

	if rows[2][0] != "8.8.8.8" || rows[2][1] != "United States" || rows[2][2] != "Mountain View" || rows[2][3] != "Google LLC" {
		t.Fatalf("row 3 = %v", rows[2])
	}
}

func TestWriterSizesColumnsAndFilters(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.xlsx")
	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	if err := writer.Write(testRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close() //nolint:errcheck

	// "United States" (13) + padding (6).
	width, err := f.GetColWidth(sheetName, "B")
	if err != nil {
		t.Fatalf("GetColWidth() error = %v", err)
	}
	if width != 19 {
		t.Fatalf("column B width = %v, want 19", width)
	}
}

func TestWriterEmptyBatchStillProducesHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.xlsx")
	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	if err := writer.Write(nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
}

func TestNewWriterValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewWriter("   "); err == nil {
		t.Fatal("expected error for empty output path")
	}
}
