package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"sales-rfm/pkg/models"

	"github.com/shopspring/decimal"
)

// timestampLayouts are tried in order; values without a zone are read as UTC.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseTimestamp parses an ISO-like or US locale date-time string.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrBadTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unsupported format %q", ErrBadTimestamp, value)
}

// LoadCSV reads the order dataset from a delimited file.
func LoadCSV(path string, opts Options) ([]models.OrderRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	bar := opts.bar(size, "loading "+path, true)
	defer bar.Finish()

	records, err := ReadCSV(io.TeeReader(f, bar))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadCSV parses a header row followed by order rows. Columns are matched by
// name, case-insensitively; unknown columns are ignored. Any row with a
// malformed timestamp or amount fails the whole read.
func ReadCSV(r io.Reader) ([]models.OrderRecord, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []models.OrderRecord
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		get := func(col string) string {
			return strings.TrimSpace(record[idx[col]])
		}
		ts, err := ParseTimestamp(get(ColPurchasedAt))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		payment := decimal.Zero
		if raw := get(ColPayment); raw != "" {
			payment, err = decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w %q", line, ErrBadAmount, raw)
			}
		}

		out = append(out, models.OrderRecord{
			OrderID:           get(ColOrderID),
			OrderItemID:       get(ColOrderItemID),
			CustomerID:        get(ColCustomerID),
			PurchaseTimestamp: ts,
			PaymentValue:      payment,
			PaymentType:       get(ColPaymentType),
			CustomerState:     get(ColState),
			Category:          get(ColCategory),
		})
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := seen[h]; !dup {
			seen[h] = i
		}
	}
	idx := make(map[string]int, len(columns))
	var missing []string
	for _, col := range columns {
		i, ok := seen[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}
