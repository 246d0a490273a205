package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/edia/stratmap/internal/model"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads an Excel workbook into raw rows. The first row of the
// selected sheet is the header.
func ReadXLSX(path string, opts XLSXOptions) ([]model.RawRow, *model.ParseReport, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, nil, err
	}
	return readSheet(sheet)
}

// ReadXLSXBytes reads an Excel workbook from memory, for uploads that never
// touch disk.
func ReadXLSXBytes(data []byte, opts XLSXOptions) ([]model.RawRow, *model.ParseReport, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, eris.Wrap(err, "xlsx: open binary")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, nil, err
	}
	return readSheet(sheet)
}

func readSheet(sheet *xlsx.Sheet) ([]model.RawRow, *model.ParseReport, error) {
	if len(sheet.Rows) < 2 {
		return nil, &model.ParseReport{}, nil
	}

	headers := rowToStrings(sheet.Rows[0])
	table := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		// Sheets pad short rows with missing trailing cells; extend to the
		// header width so sparse rows are not dropped as malformed.
		for len(cells) < len(headers) {
			cells = append(cells, "")
		}
		table = append(table, cells)
	}

	rows, report := rowsFromTable(headers, table)
	return rows, report, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
