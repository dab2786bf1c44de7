package calculator

import (
	"context"
	"fmt"
	"time"

	"sales-rfm/pkg/aggregate"
	"sales-rfm/pkg/logger"
	"sales-rfm/pkg/metrics"
	"sales-rfm/pkg/models"
	"sales-rfm/pkg/rfm"
	"sales-rfm/pkg/store"

	"go.uber.org/zap"
)

// Build computes every result table of a filtered view. It is a pure function
// of its inputs: the same view and options always give the same report.
func Build(view models.View, opts rfm.Options) (*models.Report, error) {
	ranked := aggregate.CategorySales(view)

	records := rfm.Compute(view)
	segments, err := rfm.Segment(records, opts)
	if err != nil {
		return nil, fmt.Errorf("segment customers: %w", err)
	}

	return &models.Report{
		Summary:          aggregate.Summarize(view),
		MonthlyOrders:    aggregate.MonthlyOrders(view),
		MonthlyRevenue:   aggregate.MonthlyRevenue(view),
		TopCategories:    aggregate.TopCategories(ranked, aggregate.TopCategoryCount),
		BottomCategories: aggregate.BottomCategories(ranked, aggregate.TopCategoryCount),
		PaymentCustomers: aggregate.PaymentCustomers(view),
		StateCustomers:   aggregate.StateCustomers(view, aggregate.TopStateCount),
		Distribution:     rfm.Distribution(records),
		Segments:         rfm.SegmentCounts(segments),
		Customers:        segments,
	}, nil
}

// Run resolves the range of cfg against st, filters and builds the report.
// A zero range selects the store's default range.
func Run(ctx context.Context, st *store.Store, cfg models.Config) (*models.Report, error) {
	rng := cfg.Range
	if rng.IsZero() {
		rng = st.DefaultRange()
	} else if err := rng.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	view := st.Filter(rng)
	report, err := Build(view, rfm.Options{StrictQuantiles: cfg.StrictQuantiles})
	elapsed := time.Since(start)
	metrics.ObserveBuild(elapsed.Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", rng, err)
	}
	report.Range = rng

	if cfg.Verbose {
		logger.WithContext(ctx).Info("report built",
			zap.Stringer("range", rng),
			zap.Int("rows", len(view)),
			zap.Int("orders", report.Summary.TotalOrders),
			zap.Int("customers", report.Summary.TotalCustomers),
			zap.Int("months", len(report.MonthlyOrders)),
			zap.Duration("elapsed", elapsed),
		)
	}
	return report, nil
}
