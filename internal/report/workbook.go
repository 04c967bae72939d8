package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"quizbank/internal/domain"
)

const (
	SheetAccepted = "Accepted"
	SheetRejected = "Rejected"
)

// WriteWorkbook writes an xlsx workbook with one sheet of accepted records
// and one sheet of rejected question blocks.
func WriteWorkbook(w io.Writer, records []domain.QuestionRecord, rejections []domain.Rejection) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAccepted); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if err := writeSheet(f, SheetAccepted, recordColumns, len(records), func(i int) []string {
		return recordToRow(&records[i])
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetRejected); err != nil {
		return fmt.Errorf("creating sheet %s: %w", SheetRejected, err)
	}
	if err := writeSheet(f, SheetRejected, rejectionColumns, len(rejections), func(i int) []string {
		return rejectionToRow(&rejections[i])
	}); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, n int, row func(int) []string) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// WriteFile writes a report to path. The extension picks the format:
// .xlsx produces a workbook, .csv a rejection list.
func WriteFile(path string, records []domain.QuestionRecord, rejections []domain.Rejection) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".csv" {
		return fmt.Errorf("report %s: %w", path, domain.ErrUnsupportedFileType)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer out.Close()

	if ext == ".xlsx" {
		if err := WriteWorkbook(out, records, rejections); err != nil {
			return err
		}
		return out.Close()
	}

	if _, err := out.Write(BOM); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	w := NewWriter(out)
	if err := w.WriteRejections(rejections); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return out.Close()
}
