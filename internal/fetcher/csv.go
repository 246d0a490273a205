package fetcher

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/edia/stratmap/internal/model"
)

// ReadCSV parses CSV content into raw rows. The first record is the header.
// Quoted fields may span lines; rows with a column count differing from the
// header are skipped and reported.
func ReadCSV(r io.Reader) ([]model.RawRow, *model.ParseReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // mismatches are handled per row, not fatally
	reader.LazyQuotes = true

	var table [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "csv: read row")
		}
		table = append(table, record)
	}

	if len(table) < 2 {
		return nil, &model.ParseReport{}, nil
	}
	rows, report := rowsFromTable(table[0], table[1:])
	return rows, report, nil
}

// ReadCSVFile opens a CSV file, decoding its charset when it is not UTF-8,
// and parses it.
func ReadCSVFile(path string) ([]model.RawRow, *model.ParseReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	decoded, err := DecodeReader(f)
	if err != nil {
		return nil, nil, err
	}
	return ReadCSV(decoded)
}
