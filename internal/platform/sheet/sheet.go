// Package sheet reads and writes xlsx workbooks for the report pipeline.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"designreport/internal/domain/report"
)

var ErrInvalidWorkbook = errors.New("invalid workbook")

// Table is a worksheet as read: header names in column order and the data rows.
type Table struct {
	Header []string
	Rows   []report.RawRow
}

// ReadRows loads the first worksheet. The first row is the header; every later
// non-blank row becomes a RawRow keyed by header text. Numeric cells are
// returned as float64 so that date serials reach the parser untouched.
func ReadRows(r io.Reader) ([]report.RawRow, error) {
	table, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	return table.Rows, nil
}

func ReadTable(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	table := Table{Rows: []report.RawRow{}}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table, nil
	}
	name := sheets[0]

	grid, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("%w: read %q: %v", ErrInvalidWorkbook, name, err)
	}
	if len(grid) == 0 {
		return table, nil
	}

	header := grid[0]
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			table.Header = append(table.Header, h)
		}
	}
	for i, cells := range grid[1:] {
		row := report.RawRow{}
		for col, raw := range cells {
			if col >= len(header) || strings.TrimSpace(header[col]) == "" || raw == "" {
				continue
			}
			if _, taken := row[header[col]]; taken {
				continue
			}
			row[header[col]] = cellValue(f, name, col+1, i+2, raw)
		}
		if len(row) > 0 {
			table.Rows = append(table.Rows, row)
		}
	}
	return table, nil
}

func ReadFile(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer file.Close()
	return ReadTable(file)
}

func cellValue(f *excelize.File, sheetName string, col, row int, raw string) any {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	kind, err := f.GetCellType(sheetName, axis)
	if err != nil {
		return raw
	}
	switch kind {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	return raw
}

// Write renders one worksheet with a header row followed by rows.
func Write(w io.Writer, sheetName string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &head); err != nil {
		return err
	}
	for i, values := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := values
		if err := f.SetSheetRow(sheetName, axis, &row); err != nil {
			return err
		}
	}
	if len(header) > 0 {
		last, err := excelize.ColumnNumberToName(len(header))
		if err == nil {
			_ = f.SetColWidth(sheetName, "A", last, 18)
		}
	}
	_, err := f.WriteTo(w)
	return err
}
