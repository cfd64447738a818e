package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pointage/internal/presence"
)

const sheetName = "Présences"

// WriteXLSX renders the rows as a single-sheet workbook with the same
// columns as the CSV export.
func WriteXLSX(w io.Writer, records []presence.Presence) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("export: new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: drop default sheet: %w", err)
	}

	if err := setRow(f, 1, header); err != nil {
		return err
	}
	for i, p := range records {
		if err := setRow(f, i+2, row(p)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, line int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("export: set row %d: %w", line, err)
	}
	return nil
}
