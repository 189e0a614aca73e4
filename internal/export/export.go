// Package export renders a filtered record set as JSON or CSV.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

// ErrUnsupportedFormat is returned for any format other than json or csv.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// csvHeader is the contractual CSV column set, in order.
var csvHeader = []string{
	"errorId", "timestamp", "severity", "status",
	"component", "category", "title", "errorMessage",
}

// Export renders records in the given format. "json" is the pretty-printed
// record array; "csv" is the header row followed by one fully quoted row per
// record, embedded quotes doubled. An empty set exports as "[]" or as the
// bare header row.
func Export(records []*record.Record, format string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal records: %w", err)
		}
		return string(data), nil

	case "csv":
		lines := make([]string, 0, len(records)+1)
		lines = append(lines, strings.Join(csvHeader, ","))
		for _, rec := range records {
			lines = append(lines, csvRow(rec))
		}
		return strings.Join(lines, "\n"), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func csvRow(rec *record.Record) string {
	fields := []string{
		rec.ID,
		rec.Timestamp.Format(time.RFC3339),
		string(rec.Severity),
		string(rec.Status),
		rec.Component,
		string(rec.Category),
		rec.Title,
		rec.ErrorMessage,
	}
	for i, f := range fields {
		fields[i] = quote(f)
	}
	return strings.Join(fields, ",")
}

// quote wraps every field in double quotes regardless of content, doubling
// embedded quotes. encoding/csv quotes only when required, so the row format
// is built by hand here.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
