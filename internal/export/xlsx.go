package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Built-in excelize number formats.
const (
	numFmtDecimal = 4  // #,##0.00
	numFmtPercent = 10 // 0.00%
)

// columnFormats maps each sheet's 1-based data columns to a number format.
var columnFormats = map[string]map[int]int{
	AllocationSheet: {2: numFmtDecimal, 3: numFmtPercent, 4: numFmtPercent, 5: numFmtPercent},
	SnapshotsSheet:  {2: numFmtDecimal, 3: numFmtDecimal, 4: numFmtDecimal, 5: numFmtPercent},
}

// WriteXLSX renders the export tables as an Excel workbook to w.
func (s *Service) WriteXLSX(ctx context.Context, w io.Writer) error {
	tables, err := s.Tables(ctx)
	if err != nil {
		return err
	}

	f, err := buildWorkbook(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// buildWorkbook creates one sheet per table, replacing the default sheet.
func buildWorkbook(tables []Table) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9EAD3"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	decimalStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtDecimal})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating number style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtPercent})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating percent style: %w", err)
	}

	for i, t := range tables {
		idx, err := f.NewSheet(t.Name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %s: %w", t.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeTable(f, t, header, decimalStyle, percentStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}
	return f, nil
}

func writeTable(f *excelize.File, t Table, header, decimalStyle, percentStyle int) error {
	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", t.Name, r+1, err)
		}
	}
	if len(t.Rows) == 0 {
		return nil
	}

	cols := len(t.Rows[0])
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(t.Name, 1, 1, header); err != nil {
		return fmt.Errorf("styling %s header: %w", t.Name, err)
	}
	if err := f.SetColWidth(t.Name, "A", last, 16); err != nil {
		return fmt.Errorf("sizing %s columns: %w", t.Name, err)
	}

	if len(t.Rows) < 2 {
		return nil
	}
	lastRow := len(t.Rows)
	for c, numFmt := range columnFormats[t.Name] {
		style := decimalStyle
		if numFmt == numFmtPercent {
			style = percentStyle
		}
		top, _ := excelize.CoordinatesToCellName(c, 2)
		bottom, _ := excelize.CoordinatesToCellName(c, lastRow)
		if err := f.SetCellStyle(t.Name, top, bottom, style); err != nil {
			return fmt.Errorf("styling %s column %d: %w", t.Name, c, err)
		}
	}
	return nil
}
