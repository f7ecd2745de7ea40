package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Tally"

// WriteXLSX writes a workbook with a title row, the header, the rows and
// a bold totals row. Quantities and amounts are numeric cells.
func WriteXLSX(w io.Writer, s Sheet, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", s.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", bold); err != nil {
		return err
	}

	header := Header()
	if err := setRow(f, 3, toAny(header)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 3)
	if err := f.SetCellStyle(sheetName, "A3", last, bold); err != nil {
		return err
	}

	row := 4
	for _, r := range s.Rows {
		if err := setRow(f, row, xlsxCells(cells(r, loc))); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
		row++
	}
	if err := setRow(f, row, xlsxCells(footer(s))); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	end, _ := excelize.CoordinatesToCellName(len(header), row)
	if err := f.SetCellStyle(sheetName, first, end, bold); err != nil {
		return err
	}

	amountCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(sheetName, amountCol+"4", fmt.Sprintf("%s%d", amountCol, row), money); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", "B", 22); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &values)
}

func xlsxCells(cells []any) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		if d, ok := c.(decimal.Decimal); ok {
			v, _ := d.Float64()
			out[i] = v
			continue
		}
		out[i] = c
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
