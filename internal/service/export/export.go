// Package export renders audit records as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"smart-mail-reply-go/internal/model"
	"smart-mail-reply-go/internal/service/audit"
)

// SheetName is the worksheet holding the audit rows.
const SheetName = "Audit"

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []interface{}{"Timestamp", "Sender", "Subject", "Message", "Category", "Answer", "Model", "Replied"}

// AuditXLSX writes records to w as a single-sheet workbook with a header row.
func AuditXLSX(w io.Writer, records []model.AuditRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, 1, header); err != nil {
		return err
	}
	for i, rec := range records {
		row := []interface{}{
			rec.Timestamp.Format(audit.TimestampLayout),
			rec.Sender,
			rec.Subject,
			rec.Body,
			string(rec.Category),
			rec.Answer,
			rec.Model,
			yesNo(rec.Replied),
		}
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "B", "C", 30); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "D", "D", 60); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "F", "F", 60); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, n int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", n, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
