package aggregate

import (
	"fmt"
	"testing"
	"time"

	"sales-rfm/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func order(orderID, customer string, ts time.Time, payment int64) models.OrderRecord {
	return models.OrderRecord{
		OrderID:           orderID,
		OrderItemID:       "1",
		CustomerID:        customer,
		PurchaseTimestamp: ts,
		PaymentValue:      decimal.NewFromInt(payment),
		PaymentType:       "credit_card",
		CustomerState:     "SP",
		Category:          "toys",
	}
}

func scenarioView() models.View {
	return models.View{
		order("a1", "A", day(2023, 1, 1), 100),
		order("a2", "A", day(2023, 1, 2), 200),
		order("a3", "A", day(2023, 1, 3), 300),
		order("b1", "B", day(2023, 1, 1), 50),
	}
}

func categoryView(counts map[string]int) models.View {
	var view models.View
	n := 0
	for cat, c := range counts {
		for i := 0; i < c; i++ {
			n++
			r := order(fmt.Sprintf("o%d", n), fmt.Sprintf("c%d", n), day(2023, 1, 1), 1)
			r.Category = cat
			r.OrderItemID = fmt.Sprint(i + 1)
			view = append(view, r)
		}
	}
	return view
}

func categories(rows []models.CategorySales) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Category
	}
	return out
}

func TestMonthlyOrders_DistinctOrders(t *testing.T) {
	view := scenarioView()
	view = append(view, order("a3", "A", day(2023, 1, 3), 20)) // second payment of a3

	got := MonthlyOrders(view)
	require.Len(t, got, 1)
	assert.Equal(t, "2023-01", got[0].YearMonth)
	assert.Equal(t, 4, got[0].OrderCount)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), got[0].Month)
}

func TestMonthlyOrders_OmitsEmptyMonths(t *testing.T) {
	view := models.View{
		order("o1", "A", day(2023, 3, 5), 10),
		order("o2", "B", day(2023, 1, 5), 10),
		order("o3", "B", day(2023, 1, 20), 10),
	}
	got := MonthlyOrders(view)
	require.Len(t, got, 2)
	assert.Equal(t, "2023-01", got[0].YearMonth)
	assert.Equal(t, 2, got[0].OrderCount)
	assert.Equal(t, "2023-03", got[1].YearMonth)
	assert.Equal(t, 1, got[1].OrderCount)
}

func TestMonthlyRevenue_SumsEveryPayment(t *testing.T) {
	view := scenarioView()
	view = append(view, order("a3", "A", day(2023, 1, 3), 350))
	view = append(view, order("c1", "C", day(2023, 2, 28), 1_500_000))

	got := MonthlyRevenue(view)
	require.Len(t, got, 2)
	assert.Equal(t, "2023-01", got[0].YearMonth)
	assert.True(t, decimal.NewFromInt(1000).Equal(got[0].PaymentValue), got[0].PaymentValue.String())
	assert.InDelta(t, 0.001, got[0].RevenueMillion, 1e-12)
	assert.Equal(t, "2023-02", got[1].YearMonth)
	assert.InDelta(t, 1.5, got[1].RevenueMillion, 1e-12)
}

func TestMonthlySeries_SameMonths(t *testing.T) {
	view := models.View{
		order("o1", "A", day(2022, 11, 5), 10),
		order("o2", "B", day(2023, 1, 5), 0),
		order("o3", "C", day(2023, 4, 1), 7),
		order("o4", "C", day(2023, 4, 30), 7),
	}
	orders := MonthlyOrders(view)
	revenue := MonthlyRevenue(view)
	require.Equal(t, len(orders), len(revenue))
	for i := range orders {
		assert.Equal(t, orders[i].YearMonth, revenue[i].YearMonth)
	}
}

func TestCategoryRanking_TopAndBottom(t *testing.T) {
	ranked := CategorySales(categoryView(map[string]int{"X": 10, "Y": 7, "Z": 3, "W": 1}))

	top := TopCategories(ranked, TopCategoryCount)
	bottom := BottomCategories(ranked, TopCategoryCount)

	assert.Equal(t, []string{"X", "Y", "Z", "W"}, categories(top))
	assert.Equal(t, []string{"W", "Z", "Y", "X"}, categories(bottom))
	assert.Equal(t, 10, top[0].TotalItemsSold)
	assert.Equal(t, 1, bottom[0].TotalItemsSold)
}

func TestCategoryRanking_MoreThanFive(t *testing.T) {
	ranked := CategorySales(categoryView(map[string]int{
		"a": 9, "b": 8, "c": 7, "d": 6, "e": 5, "f": 4, "g": 3,
	}))

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, categories(TopCategories(ranked, 5)))
	assert.Equal(t, []string{"g", "f", "e", "d", "c"}, categories(BottomCategories(ranked, 5)))
}

func TestCategoryRanking_TiesKeepNameOrder(t *testing.T) {
	ranked := CategorySales(categoryView(map[string]int{"zeta": 2, "alpha": 2, "mid": 5}))
	assert.Equal(t, []string{"mid", "alpha", "zeta"}, categories(ranked))
}

func TestCategoryRanking_CountsLineItemsAndSkipsMissing(t *testing.T) {
	view := models.View{
		order("o1", "A", day(2023, 1, 1), 10),
		order("o1", "A", day(2023, 1, 1), 10), // same order, second payment row
		order("o2", "B", day(2023, 1, 1), 10),
	}
	noCategory := order("o3", "C", day(2023, 1, 1), 10)
	noCategory.Category = ""
	noItem := order("o4", "C", day(2023, 1, 1), 10)
	noItem.OrderItemID = ""
	view = append(view, noCategory, noItem)

	ranked := CategorySales(view)
	require.Len(t, ranked, 1)
	assert.Equal(t, models.CategorySales{Category: "toys", TotalItemsSold: 3}, ranked[0])
}

func TestPaymentCustomers_DistinctCustomers(t *testing.T) {
	mk := func(orderID, customer, payment string) models.OrderRecord {
		r := order(orderID, customer, day(2023, 1, 1), 10)
		r.PaymentType = payment
		return r
	}
	view := models.View{
		mk("o1", "A", "credit_card"),
		mk("o2", "A", "credit_card"),
		mk("o3", "B", "boleto"),
		mk("o4", "C", "boleto"),
		mk("o5", "D", "voucher"),
		mk("o6", "A", "voucher"),
		mk("o7", "E", ""),
	}

	got := PaymentCustomers(view)
	assert.Equal(t, []models.CustomerCount{
		{Label: "boleto", CustomerCount: 2},
		{Label: "voucher", CustomerCount: 2},
		{Label: "credit_card", CustomerCount: 1},
	}, got)
}

func TestStateCustomers_TopTen(t *testing.T) {
	var view models.View
	n := 0
	for s := 0; s < 12; s++ {
		for c := 0; c <= s; c++ {
			n++
			r := order(fmt.Sprintf("o%d", n), fmt.Sprintf("c%d", n), day(2023, 1, 1), 1)
			r.CustomerState = fmt.Sprintf("S%02d", s)
			view = append(view, r)
		}
	}

	got := StateCustomers(view, TopStateCount)
	require.Len(t, got, 10)
	assert.Equal(t, "S11", got[0].Label)
	assert.Equal(t, 12, got[0].CustomerCount)
	assert.Equal(t, "S02", got[9].Label)
}

func TestSummarize(t *testing.T) {
	view := scenarioView()
	view = append(view, order("b1", "B", day(2023, 1, 1), 25))

	s := Summarize(view)
	assert.Equal(t, 4, s.TotalOrders)
	assert.Equal(t, 2, s.TotalCustomers)
	assert.True(t, decimal.NewFromInt(675).Equal(s.TotalRevenue))
	assert.InDelta(t, 0.000675, s.RevenueMillion, 1e-12)
}

func TestEmptyView(t *testing.T) {
	view := models.View{}

	assert.Empty(t, MonthlyOrders(view))
	assert.Empty(t, MonthlyRevenue(view))
	ranked := CategorySales(view)
	assert.Empty(t, ranked)
	assert.Empty(t, TopCategories(ranked, 5))
	assert.Empty(t, BottomCategories(ranked, 5))
	assert.Empty(t, PaymentCustomers(view))
	assert.Empty(t, StateCustomers(view, 10))

	s := Summarize(view)
	assert.Zero(t, s.TotalOrders)
	assert.Zero(t, s.TotalCustomers)
	assert.True(t, s.TotalRevenue.IsZero())
	assert.Zero(t, s.RevenueMillion)
}
