// Package store holds the order dataset in memory and selects date-bounded views of it.
package store

import (
	"strconv"
	"time"

	"sales-rfm/pkg/models"

	"github.com/cespare/xxhash/v2"
)

// Store is the load-once, read-only order dataset. It is safe for concurrent
// readers since nothing mutates it after New.
type Store struct {
	records     []models.OrderRecord
	minTS       time.Time
	maxTS       time.Time
	fingerprint string
}

// New takes ownership of records; callers must not modify the slice afterwards.
func New(records []models.OrderRecord) *Store {
	s := &Store{records: records}
	for i, r := range records {
		if i == 0 || r.PurchaseTimestamp.Before(s.minTS) {
			s.minTS = r.PurchaseTimestamp
		}
		if i == 0 || r.PurchaseTimestamp.After(s.maxTS) {
			s.maxTS = r.PurchaseTimestamp
		}
	}
	s.fingerprint = fingerprint(records)
	return s
}

// Fingerprint identifies the dataset content. Stores loaded from the same rows
// in the same order share it.
func (s *Store) Fingerprint() string {
	return s.fingerprint
}

func fingerprint(records []models.OrderRecord) string {
	d := xxhash.New()
	var buf []byte
	for _, r := range records {
		buf = buf[:0]
		for _, f := range []string{r.OrderID, r.OrderItemID, r.CustomerID, r.PaymentType, r.CustomerState, r.Category} {
			buf = append(buf, f...)
			buf = append(buf, 0)
		}
		buf = strconv.AppendInt(buf, r.PurchaseTimestamp.UnixNano(), 10)
		buf = append(buf, 0)
		buf = append(buf, r.PaymentValue.String()...)
		buf = append(buf, '\n')
		_, _ = d.Write(buf)
	}
	return strconv.FormatInt(int64(len(records)), 36) + "-" + strconv.FormatUint(d.Sum64(), 16)
}

func (s *Store) Len() int {
	return len(s.records)
}

// Records returns the full dataset as a view. The backing array is shared.
func (s *Store) Records() models.View {
	return models.View(s.records)
}

// Bounds returns the earliest and latest purchase timestamps. ok is false for an empty store.
func (s *Store) Bounds() (first, last time.Time, ok bool) {
	if len(s.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.minTS, s.maxTS, true
}

// DefaultRange spans the calendar dates of the first and last purchase.
func (s *Store) DefaultRange() models.DateRange {
	first, last, ok := s.Bounds()
	if !ok {
		return models.DateRange{}
	}
	return models.DateRange{Start: models.DateOf(first), End: models.DateOf(last)}
}

// Filter selects the records whose purchase date lies in rng. A zero range
// selects everything.
func (s *Store) Filter(rng models.DateRange) models.View {
	if rng.IsZero() {
		rng = s.DefaultRange()
	}
	return Filter(s.records, rng)
}

// Filter copies the records of in whose purchase date lies in rng, both bounds
// inclusive, preserving input order. An inverted range yields an empty view.
func Filter(in []models.OrderRecord, rng models.DateRange) models.View {
	out := make(models.View, 0)
	if rng.Validate() != nil {
		return out
	}
	for _, r := range in {
		if rng.Contains(r.PurchaseTimestamp) {
			out = append(out, r)
		}
	}
	return out
}
