// Package rfm computes per-customer recency, frequency and monetary metrics
// and segments customers by summed quintile ranks.
package rfm

import (
	"fmt"
	"slices"
	"time"

	"sales-rfm/pkg/aggregate"
	"sales-rfm/pkg/models"

	"github.com/shopspring/decimal"
)

const quintiles = 5

const (
	SegmentTop    = "Top Customers"
	SegmentHigh   = "High Value Customers"
	SegmentMedium = "Medium Value Customers"
	SegmentLow    = "Low Value Customers"
	SegmentLost   = "Lost Customers"
)

// Options tunes the quintile scoring.
type Options struct {
	// StrictQuantiles makes Segment fail with ErrDegenerateBins instead of
	// merging duplicate bins.
	StrictQuantiles bool
}

type customerAgg struct {
	last     time.Time
	orders   map[string]struct{}
	monetary decimal.Decimal
}

// Compute returns one record per distinct customer of the view, ordered by
// customer id. Recency is measured in whole days against the latest purchase
// of the whole view, so the most recent customer has recency 0.
func Compute(view models.View) []models.RFMRecord {
	groups := make(map[string]*customerAgg)
	var maxTS time.Time
	for i, r := range view {
		if i == 0 || r.PurchaseTimestamp.After(maxTS) {
			maxTS = r.PurchaseTimestamp
		}
		if r.CustomerID == "" {
			continue
		}
		g, ok := groups[r.CustomerID]
		if !ok {
			g = &customerAgg{last: r.PurchaseTimestamp, orders: make(map[string]struct{})}
			groups[r.CustomerID] = g
		}
		if r.PurchaseTimestamp.After(g.last) {
			g.last = r.PurchaseTimestamp
		}
		if r.OrderID != "" {
			g.orders[r.OrderID] = struct{}{}
		}
		g.monetary = g.monetary.Add(r.PaymentValue)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]models.RFMRecord, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		out = append(out, models.RFMRecord{
			CustomerID:       id,
			LastPurchaseDate: g.last,
			Frequency:        len(g.orders),
			Monetary:         g.monetary,
			Recency:          int(maxTS.Sub(g.last) / (24 * time.Hour)),
		})
	}
	return out
}

// Segment scores every record by quintile over the whole population:
// recency is inverted (most recent quintile scores 5), frequency is first
// ranked with ties in record order, monetary is binned directly.
// An empty population yields an empty segmentation.
func Segment(records []models.RFMRecord, opts Options) ([]models.RFMSegmentRecord, error) {
	out := make([]models.RFMSegmentRecord, 0, len(records))
	if len(records) == 0 {
		return out, nil
	}

	recency := make([]float64, len(records))
	frequency := make([]float64, len(records))
	monetary := make([]float64, len(records))
	for i, r := range records {
		recency[i] = float64(r.Recency)
		frequency[i] = float64(r.Frequency)
		monetary[i] = r.Monetary.InexactFloat64()
	}

	rBins, err := Qcut(recency, quintiles, opts.StrictQuantiles)
	if err != nil {
		return nil, wrapMetric("recency", err)
	}
	fBins, err := Qcut(RankFirst(frequency), quintiles, opts.StrictQuantiles)
	if err != nil {
		return nil, wrapMetric("frequency", err)
	}
	mBins, err := Qcut(monetary, quintiles, opts.StrictQuantiles)
	if err != nil {
		return nil, wrapMetric("monetary", err)
	}

	for i, r := range records {
		seg := models.RFMSegmentRecord{
			RFMRecord: r,
			RRank:     quintiles - rBins[i],
			FRank:     fBins[i] + 1,
			MRank:     mBins[i] + 1,
		}
		seg.RFMScore = seg.RRank + seg.FRank + seg.MRank
		seg.Segment = Classify(seg.RFMScore)
		out = append(out, seg)
	}
	return out, nil
}

// Classify maps an RFM score to its segment, highest threshold first.
func Classify(score int) string {
	switch {
	case score >= 13:
		return SegmentTop
	case score >= 10:
		return SegmentHigh
	case score >= 7:
		return SegmentMedium
	case score >= 4:
		return SegmentLow
	default:
		return SegmentLost
	}
}

// SegmentCounts counts distinct customers per segment, largest segment first.
func SegmentCounts(segments []models.RFMSegmentRecord) []models.CustomerCount {
	groups := make(map[string]map[string]struct{})
	for _, s := range segments {
		set, ok := groups[s.Segment]
		if !ok {
			set = make(map[string]struct{})
			groups[s.Segment] = set
		}
		set[s.CustomerID] = struct{}{}
	}
	labels := make([]string, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	out := make([]models.CustomerCount, 0, len(labels))
	for _, l := range labels {
		out = append(out, models.CustomerCount{Label: l, CustomerCount: len(groups[l])})
	}
	aggregate.SortCounts(out)
	return out
}

// Distribution collects the three metric arrays in record order, with their
// box-plot summaries.
func Distribution(records []models.RFMRecord) models.Distribution {
	d := models.Distribution{
		Recency:   make([]int, 0, len(records)),
		Frequency: make([]int, 0, len(records)),
		Monetary:  make([]decimal.Decimal, 0, len(records)),
	}
	rs := make([]float64, 0, len(records))
	fs := make([]float64, 0, len(records))
	ms := make([]float64, 0, len(records))
	for _, r := range records {
		d.Recency = append(d.Recency, r.Recency)
		d.Frequency = append(d.Frequency, r.Frequency)
		d.Monetary = append(d.Monetary, r.Monetary)
		rs = append(rs, float64(r.Recency))
		fs = append(fs, float64(r.Frequency))
		ms = append(ms, r.Monetary.InexactFloat64())
	}
	d.RecencyBox = Box(rs)
	d.FrequencyBox = Box(fs)
	d.MonetaryBox = Box(ms)
	return d
}

func wrapMetric(metric string, err error) error {
	return fmt.Errorf("%s quintiles: %w", metric, err)
}
