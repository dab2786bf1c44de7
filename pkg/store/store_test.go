package store

import (
	"testing"
	"time"

	"sales-rfm/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(orderID string, ts time.Time) models.OrderRecord {
	return models.OrderRecord{
		OrderID:           orderID,
		OrderItemID:       "1",
		CustomerID:        "c-" + orderID,
		PurchaseTimestamp: ts,
		PaymentValue:      decimal.NewFromInt(10),
	}
}

func sampleStore() *Store {
	return New([]models.OrderRecord{
		rec("o2", time.Date(2023, 1, 15, 8, 30, 0, 0, time.UTC)),
		rec("o1", time.Date(2022, 12, 31, 23, 59, 59, 0, time.UTC)),
		rec("o3", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)),
		rec("o4", time.Date(2023, 3, 10, 17, 0, 0, 0, time.UTC)),
	})
}

func TestStore_BoundsAndDefaultRange(t *testing.T) {
	s := sampleStore()
	first, last, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, time.Date(2022, 12, 31, 23, 59, 59, 0, time.UTC), first)
	assert.Equal(t, time.Date(2023, 3, 10, 17, 0, 0, 0, time.UTC), last)

	rng := s.DefaultRange()
	assert.Equal(t, "2022-12-31..2023-03-10", rng.String())
	assert.Len(t, s.Filter(rng), 4)
}

func TestStore_EmptyBounds(t *testing.T) {
	s := New(nil)
	_, _, ok := s.Bounds()
	assert.False(t, ok)
	assert.True(t, s.DefaultRange().IsZero())
	assert.Empty(t, s.Filter(models.DateRange{}))
}

func TestFilter_InclusiveBounds(t *testing.T) {
	s := sampleStore()
	rng, err := models.NewDateRange("2023-01-15", "2023-02-01")
	require.NoError(t, err)

	view := s.Filter(rng)
	require.Len(t, view, 2)
	assert.Equal(t, "o2", view[0].OrderID)
	assert.Equal(t, "o3", view[1].OrderID)
}

func TestFilter_MembershipMatchesPredicate(t *testing.T) {
	s := sampleStore()
	rng, err := models.NewDateRange("2023-01-01", "2023-02-28")
	require.NoError(t, err)

	view := s.Filter(rng)
	in := map[string]bool{}
	for _, r := range view {
		in[r.OrderID] = true
	}
	for _, r := range s.Records() {
		d := models.DateOf(r.PurchaseTimestamp)
		want := !d.Before(rng.Start) && !d.After(rng.End)
		assert.Equal(t, want, in[r.OrderID], r.OrderID)
	}
}

func TestFilter_RangeAfterData(t *testing.T) {
	s := sampleStore()
	rng, err := models.NewDateRange("2024-01-01", "2024-12-31")
	require.NoError(t, err)
	view := s.Filter(rng)
	assert.NotNil(t, view)
	assert.Empty(t, view)
}

func TestFilter_InvertedRangeIsEmpty(t *testing.T) {
	s := sampleStore()
	rng := models.DateRange{
		Start: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.Empty(t, s.Filter(rng))
}

func TestFilter_DoesNotMutateStore(t *testing.T) {
	s := sampleStore()
	rng, err := models.NewDateRange("2023-01-01", "2023-01-31")
	require.NoError(t, err)

	view := s.Filter(rng)
	require.Len(t, view, 1)
	view[0].OrderID = "changed"

	for _, r := range s.Records() {
		assert.NotEqual(t, "changed", r.OrderID)
	}
}

func TestStore_Fingerprint(t *testing.T) {
	a := sampleStore()
	assert.Equal(t, a.Fingerprint(), sampleStore().Fingerprint())
	assert.NotEmpty(t, New(nil).Fingerprint())

	fewer := New(a.Records()[:3])
	assert.NotEqual(t, a.Fingerprint(), fewer.Fingerprint())

	changed := append(models.View(nil), a.Records()...)
	changed[0].PaymentValue = decimal.NewFromInt(11)
	assert.NotEqual(t, a.Fingerprint(), New(changed).Fingerprint())
}
