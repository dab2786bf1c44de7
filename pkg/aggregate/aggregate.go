// Package aggregate implements the descriptive transforms over a filtered view:
// monthly resampling, category rankings and distinct-customer counts.
//
// Group-by keys are enumerated in ascending order before any ranking sort, and
// ranking sorts are stable, so equal counts keep key order.
package aggregate

import (
	"fmt"
	"slices"
	"time"

	"sales-rfm/pkg/models"

	"github.com/shopspring/decimal"
)

const (
	TopCategoryCount = 5
	TopStateCount    = 10
)

var million = decimal.NewFromInt(1_000_000)

// MonthlyOrders counts distinct order ids per calendar month. Months without
// any record in the view are omitted.
func MonthlyOrders(view models.View) []models.MonthlyOrders {
	orders := make(map[time.Time]map[string]struct{})
	for _, r := range view {
		m := monthOf(r.PurchaseTimestamp)
		set, ok := orders[m]
		if !ok {
			set = make(map[string]struct{})
			orders[m] = set
		}
		if r.OrderID != "" {
			set[r.OrderID] = struct{}{}
		}
	}

	out := make([]models.MonthlyOrders, 0, len(orders))
	for _, m := range sortedMonths(orders) {
		out = append(out, models.MonthlyOrders{
			Month:      m,
			YearMonth:  formatYearMonth(m),
			OrderCount: len(orders[m]),
		})
	}
	return out
}

// MonthlyRevenue sums every payment row per calendar month; payments are never
// deduplicated per order.
func MonthlyRevenue(view models.View) []models.MonthlyRevenue {
	sums := make(map[time.Time]decimal.Decimal)
	for _, r := range view {
		m := monthOf(r.PurchaseTimestamp)
		sums[m] = sums[m].Add(r.PaymentValue)
	}

	out := make([]models.MonthlyRevenue, 0, len(sums))
	for _, m := range sortedMonths(sums) {
		out = append(out, models.MonthlyRevenue{
			Month:          m,
			YearMonth:      formatYearMonth(m),
			PaymentValue:   sums[m],
			RevenueMillion: sums[m].Div(million).InexactFloat64(),
		})
	}
	return out
}

// CategorySales counts line items per product category, most sold first.
// Rows without a category or without a line item id are not counted.
func CategorySales(view models.View) []models.CategorySales {
	counts := make(map[string]int)
	for _, r := range view {
		if r.Category == "" || r.OrderItemID == "" {
			continue
		}
		counts[r.Category]++
	}

	out := make([]models.CategorySales, 0, len(counts))
	for _, c := range sortedKeys(counts) {
		out = append(out, models.CategorySales{Category: c, TotalItemsSold: counts[c]})
	}
	slices.SortStableFunc(out, func(a, b models.CategorySales) int {
		return b.TotalItemsSold - a.TotalItemsSold
	})
	return out
}

// TopCategories returns the first n entries of a descending ranking.
func TopCategories(ranked []models.CategorySales, n int) []models.CategorySales {
	n = min(n, len(ranked))
	return slices.Clone(ranked[:n])
}

// BottomCategories returns the last n entries of a descending ranking,
// re-sorted ascending so the least sold category comes first.
func BottomCategories(ranked []models.CategorySales, n int) []models.CategorySales {
	n = min(n, len(ranked))
	out := slices.Clone(ranked[len(ranked)-n:])
	slices.SortStableFunc(out, func(a, b models.CategorySales) int {
		return a.TotalItemsSold - b.TotalItemsSold
	})
	return out
}

// CustomerCountsBy counts distinct customers per label, most customers first.
// Records with an empty label fall out of the grouping.
func CustomerCountsBy(view models.View, label func(models.OrderRecord) string) []models.CustomerCount {
	groups := make(map[string]map[string]struct{})
	for _, r := range view {
		l := label(r)
		if l == "" {
			continue
		}
		set, ok := groups[l]
		if !ok {
			set = make(map[string]struct{})
			groups[l] = set
		}
		set[r.CustomerID] = struct{}{}
	}

	out := make([]models.CustomerCount, 0, len(groups))
	for _, l := range sortedKeys(groups) {
		out = append(out, models.CustomerCount{Label: l, CustomerCount: len(groups[l])})
	}
	SortCounts(out)
	return out
}

// SortCounts orders counts descending, keeping the current order for ties.
func SortCounts(counts []models.CustomerCount) {
	slices.SortStableFunc(counts, func(a, b models.CustomerCount) int {
		return b.CustomerCount - a.CustomerCount
	})
}

func PaymentCustomers(view models.View) []models.CustomerCount {
	return CustomerCountsBy(view, func(r models.OrderRecord) string { return r.PaymentType })
}

// StateCustomers keeps the n states with the most distinct customers.
func StateCustomers(view models.View, n int) []models.CustomerCount {
	counts := CustomerCountsBy(view, func(r models.OrderRecord) string { return r.CustomerState })
	return counts[:min(n, len(counts))]
}

// Summarize computes the scalar metrics of a view. An empty view yields zeros.
func Summarize(view models.View) models.Summary {
	orders := make(map[string]struct{})
	customers := make(map[string]struct{})
	total := decimal.Zero
	for _, r := range view {
		if r.OrderID != "" {
			orders[r.OrderID] = struct{}{}
		}
		if r.CustomerID != "" {
			customers[r.CustomerID] = struct{}{}
		}
		total = total.Add(r.PaymentValue)
	}
	return models.Summary{
		TotalOrders:    len(orders),
		TotalRevenue:   total,
		RevenueMillion: total.Div(million).InexactFloat64(),
		TotalCustomers: len(customers),
	}
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func formatYearMonth(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

func sortedMonths[V any](m map[time.Time]V) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b time.Time) int { return a.Compare(b) })
	return keys
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
