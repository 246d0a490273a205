// Package fetcher turns uploaded CRM exports (CSV or Excel) into ordered
// sequences of raw records with normalized column names. Malformed rows are
// skipped and counted, never fatal to the batch.
package fetcher

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/model"
)

var headerSpace = regexp.MustCompile(`\s+`)

// NormalizeHeader lowercases a column header and collapses whitespace to
// underscores: "Billing City" -> "billing_city". Further canonicalization
// (synonym mapping) is the Field Mapper's job, not the parser's.
func NormalizeHeader(h string) string {
	return headerSpace.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), "_")
}

// ReadFile parses an uploaded file into raw rows, dispatching on extension.
// Supported: .csv, .xlsx, .xls.
func ReadFile(path string) ([]model.RawRow, *model.ParseReport, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVFile(path)
	case ".xlsx", ".xls":
		return ReadXLSX(path, XLSXOptions{})
	default:
		return nil, nil, eris.Errorf("fetcher: unsupported file type %q", filepath.Ext(path))
	}
}

// rowsFromTable converts a header row plus data rows into RawRows, skipping
// (and counting) rows whose column count does not match the header.
func rowsFromTable(headers []string, table [][]string) ([]model.RawRow, *model.ParseReport) {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = NormalizeHeader(h)
	}

	report := &model.ParseReport{}
	rows := make([]model.RawRow, 0, len(table))
	for i, record := range table {
		if isBlankRecord(record) {
			continue
		}
		if len(record) != len(keys) {
			report.RecordSkip(model.SkippedRow{
				Line:     i + 2, // 1-based, after the header row
				Expected: len(keys),
				Got:      len(record),
				Preview:  preview(record),
			})
			continue
		}
		row := make(model.RawRow, len(keys))
		for j, key := range keys {
			row[key] = strings.TrimSpace(record[j])
		}
		rows = append(rows, row)
		report.RowsRead++
	}

	if report.RowsSkipped > 0 {
		zap.L().Warn("fetcher: skipped malformed rows",
			zap.Int("skipped", report.RowsSkipped),
			zap.Int("read", report.RowsRead),
		)
	}
	return rows, report
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func preview(record []string) string {
	s := strings.Join(record, ",")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
