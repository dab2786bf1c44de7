package models

import (
	"time"

	"github.com/shopspring/decimal"
)

/*
LOAD → one row per payment/line item, as read from the source dataset.
*/

// OrderRecord is a single row of the order-level dataset. Rows are immutable once loaded.
type OrderRecord struct {
	OrderID           string
	OrderItemID       string // empty when the source has no line item id for the row
	CustomerID        string
	PurchaseTimestamp time.Time
	PaymentValue      decimal.Decimal
	PaymentType       string
	CustomerState     string
	Category          string // product_category_name_english, empty when missing
}

// View is a read-only subset of the store selected by a DateRange.
type View []OrderRecord

/*
COMPUTE → result tables consumed by the presentation layer.
*/

// MonthlyOrders is the number of distinct orders placed in a calendar month.
type MonthlyOrders struct {
	Month      time.Time `json:"month"`
	YearMonth  string    `json:"year_month"` // "YYYY-MM"
	OrderCount int       `json:"order_count"`
}

// MonthlyRevenue is the summed payment value of a calendar month.
type MonthlyRevenue struct {
	Month          time.Time       `json:"month"`
	YearMonth      string          `json:"year_month"`
	PaymentValue   decimal.Decimal `json:"payment_value"`
	RevenueMillion float64         `json:"total_revenue_million"`
}

// CategorySales counts the line items sold in a product category.
type CategorySales struct {
	Category       string `json:"product_category_name_english"`
	TotalItemsSold int    `json:"total_items_sold"`
}

// CustomerCount counts distinct customers sharing a categorical label
// (payment type, state, segment).
type CustomerCount struct {
	Label         string `json:"label"`
	CustomerCount int    `json:"customer_count"`
}

// RFMRecord holds the raw recency/frequency/monetary metrics of a customer.
type RFMRecord struct {
	CustomerID       string          `json:"customer_id"`
	LastPurchaseDate time.Time       `json:"last_purchase_date"`
	Frequency        int             `json:"frequency"`
	Monetary         decimal.Decimal `json:"monetary"`
	Recency          int             `json:"recency"`
}

// RFMSegmentRecord extends RFMRecord with quintile ranks and the resulting segment.
type RFMSegmentRecord struct {
	RFMRecord
	RRank    int    `json:"r_rank"`
	FRank    int    `json:"f_rank"`
	MRank    int    `json:"m_rank"`
	RFMScore int    `json:"rfm_score"`
	Segment  string `json:"customer_segment"`
}

// BoxStats is the five-number summary of a distribution.
type BoxStats struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Distribution carries the raw RFM metric arrays, in customer order, for box plots.
type Distribution struct {
	Recency      []int             `json:"recency"`
	Frequency    []int             `json:"frequency"`
	Monetary     []decimal.Decimal `json:"monetary"`
	RecencyBox   *BoxStats         `json:"recency_box,omitempty"`
	FrequencyBox *BoxStats         `json:"frequency_box,omitempty"`
	MonetaryBox  *BoxStats         `json:"monetary_box,omitempty"`
}

// Summary holds the scalar business metrics of a filtered view.
type Summary struct {
	TotalOrders    int             `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	RevenueMillion float64         `json:"total_revenue_million"`
	TotalCustomers int             `json:"total_customers"`
}

// Report is the named bundle of result tables for one date range.
type Report struct {
	Range            DateRange          `json:"range"`
	Summary          Summary            `json:"summary"`
	MonthlyOrders    []MonthlyOrders    `json:"monthly_orders"`
	MonthlyRevenue   []MonthlyRevenue   `json:"monthly_revenue"`
	TopCategories    []CategorySales    `json:"top_categories"`
	BottomCategories []CategorySales    `json:"bottom_categories"`
	PaymentCustomers []CustomerCount    `json:"payment_customers"`
	StateCustomers   []CustomerCount    `json:"state_customers"`
	Distribution     Distribution       `json:"rfm_distribution"`
	Segments         []CustomerCount    `json:"segments"`
	Customers        []RFMSegmentRecord `json:"customers"`
}

/*
CONFIG → pipeline parameters
*/

// Config holds the parameters of one pipeline run.
type Config struct {
	Range           DateRange // zero value means the store's full range
	StrictQuantiles bool      // fail instead of merging duplicate quintile edges
	Verbose         bool
}
