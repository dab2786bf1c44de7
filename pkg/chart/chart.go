// Package chart renders report tables as standalone SVG documents.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"sales-rfm/pkg/models"

	svg "github.com/ajstarks/svgo"
)

const (
	Highlight = "#2C7BE5"
	Muted     = "#D3D3D3"

	width      = 720
	margin     = 48
	labelWidth = 200
	barHeight  = 22
	barGap     = 8
	maxXLabels = 12
)

var ErrUnknownChart = errors.New("unknown chart")

// Series is one labelled value per bar or point.
type Series struct {
	Labels []string
	Values []float64
}

func (s Series) max() float64 {
	m := 0.0
	for _, v := range s.Values {
		m = math.Max(m, v)
	}
	return m
}

// HBar draws a horizontal bar chart in series order. The first bar is
// highlighted; the others are muted.
func HBar(w io.Writer, title string, s Series) {
	height := margin*2 + len(s.Values)*(barHeight+barGap)
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(title)
	canvas.Rect(0, 0, width, height, "fill:white")
	canvas.Text(width/2, margin/2, title, "text-anchor:middle;font-size:16px;font-family:sans-serif")

	if len(s.Values) == 0 {
		noData(canvas, height)
		canvas.End()
		return
	}

	area := width - labelWidth - margin*2
	top := s.max()
	for i, v := range s.Values {
		y := margin + i*(barHeight+barGap)
		length := 0
		if top > 0 {
			length = int(math.Round(v / top * float64(area)))
		}
		fill := Muted
		if i == 0 {
			fill = Highlight
		}
		canvas.Text(labelWidth-8, y+barHeight*3/4, s.Labels[i], "text-anchor:end;font-size:12px;font-family:sans-serif")
		canvas.Rect(labelWidth, y, length, barHeight, "fill:"+fill)
		canvas.Text(labelWidth+length+6, y+barHeight*3/4, formatValue(v), "font-size:11px;font-family:sans-serif;fill:#555")
	}
	canvas.End()
}

// Line draws the series as a polyline with markers, x labels thinned to at
// most a dozen ticks.
func Line(w io.Writer, title string, s Series) {
	const height = 360
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(title)
	canvas.Rect(0, 0, width, height, "fill:white")
	canvas.Text(width/2, margin/2, title, "text-anchor:middle;font-size:16px;font-family:sans-serif")

	if len(s.Values) == 0 {
		noData(canvas, height)
		canvas.End()
		return
	}

	left, right := margin+24, width-margin
	top, bottom := margin, height-margin
	canvas.Line(left, bottom, right, bottom, "stroke:#999;stroke-width:1")
	canvas.Line(left, top, left, bottom, "stroke:#999;stroke-width:1")

	peak := s.max()
	canvas.Text(left-6, top+4, formatValue(peak), "text-anchor:end;font-size:11px;font-family:sans-serif")
	canvas.Text(left-6, bottom, "0", "text-anchor:end;font-size:11px;font-family:sans-serif")

	n := len(s.Values)
	step := 1
	if n > maxXLabels {
		step = (n + maxXLabels - 1) / maxXLabels
	}
	xs := make([]int, n)
	ys := make([]int, n)
	for i, v := range s.Values {
		xs[i] = left
		if n > 1 {
			xs[i] = left + i*(right-left)/(n-1)
		}
		ys[i] = bottom
		if peak > 0 {
			ys[i] = bottom - int(math.Round(v/peak*float64(bottom-top)))
		}
		if i%step == 0 {
			canvas.Text(xs[i], bottom+16, s.Labels[i], "text-anchor:middle;font-size:10px;font-family:sans-serif")
		}
	}
	canvas.Polyline(xs, ys, "fill:none;stroke:"+Highlight+";stroke-width:2")
	for i := range xs {
		canvas.Circle(xs[i], ys[i], 3, "fill:"+Highlight)
	}
	canvas.End()
}

// BoxPlot draws a horizontal five-number summary. A nil summary renders an
// empty chart.
func BoxPlot(w io.Writer, title string, stats *models.BoxStats) {
	const height = 160
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(title)
	canvas.Rect(0, 0, width, height, "fill:white")
	canvas.Text(width/2, margin/2, title, "text-anchor:middle;font-size:16px;font-family:sans-serif")

	if stats == nil {
		noData(canvas, height)
		canvas.End()
		return
	}

	left, right := margin, width-margin
	span := stats.Max - stats.Min
	if span == 0 {
		span = 1
	}
	x := func(v float64) int {
		return left + int(math.Round((v-stats.Min)/span*float64(right-left)))
	}
	mid := height / 2
	const half = 20

	canvas.Line(x(stats.Min), mid, x(stats.Q1), mid, "stroke:#555;stroke-width:1")
	canvas.Line(x(stats.Q3), mid, x(stats.Max), mid, "stroke:#555;stroke-width:1")
	canvas.Line(x(stats.Min), mid-half/2, x(stats.Min), mid+half/2, "stroke:#555;stroke-width:1")
	canvas.Line(x(stats.Max), mid-half/2, x(stats.Max), mid+half/2, "stroke:#555;stroke-width:1")
	canvas.Rect(x(stats.Q1), mid-half, max(x(stats.Q3)-x(stats.Q1), 1), half*2, "fill:"+Muted+";stroke:#555")
	canvas.Line(x(stats.Median), mid-half, x(stats.Median), mid+half, "stroke:"+Highlight+";stroke-width:2")

	for _, v := range []float64{stats.Min, stats.Median, stats.Max} {
		canvas.Text(x(v), mid+half+16, formatValue(v), "text-anchor:middle;font-size:11px;font-family:sans-serif")
	}
	canvas.End()
}

func noData(canvas *svg.SVG, height int) {
	canvas.Text(width/2, height/2, "no data", "text-anchor:middle;font-size:14px;font-family:sans-serif;fill:#999")
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Names lists the charts Render knows, in dashboard order.
func Names() []string {
	return []string{
		"monthly-orders", "monthly-revenue",
		"top-categories", "bottom-categories",
		"payment-customers", "state-customers",
		"recency", "frequency", "monetary",
		"segments",
	}
}

// Render draws the named chart of report.
func Render(w io.Writer, name string, report *models.Report) error {
	switch name {
	case "monthly-orders":
		s := Series{}
		for _, m := range report.MonthlyOrders {
			s.Labels = append(s.Labels, m.YearMonth)
			s.Values = append(s.Values, float64(m.OrderCount))
		}
		Line(w, "Number of Orders per Month", s)
	case "monthly-revenue":
		s := Series{}
		for _, m := range report.MonthlyRevenue {
			s.Labels = append(s.Labels, m.YearMonth)
			s.Values = append(s.Values, m.RevenueMillion)
		}
		Line(w, "Total Revenue per Month (millions)", s)
	case "top-categories":
		HBar(w, "Best Performing Product", categorySeries(report.TopCategories))
	case "bottom-categories":
		HBar(w, "Worst Performing Product", categorySeries(report.BottomCategories))
	case "payment-customers":
		HBar(w, "Customers by Payment Type", countSeries(report.PaymentCustomers))
	case "state-customers":
		HBar(w, "Customers by State", countSeries(report.StateCustomers))
	case "segments":
		HBar(w, "Customer Segments", countSeries(report.Segments))
	case "recency":
		BoxPlot(w, "Recency (days)", report.Distribution.RecencyBox)
	case "frequency":
		BoxPlot(w, "Frequency (orders)", report.Distribution.FrequencyBox)
	case "monetary":
		BoxPlot(w, "Monetary", report.Distribution.MonetaryBox)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	return nil
}

func categorySeries(rows []models.CategorySales) Series {
	s := Series{}
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Category)
		s.Values = append(s.Values, float64(r.TotalItemsSold))
	}
	return s
}

func countSeries(rows []models.CustomerCount) Series {
	s := Series{}
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Label)
		s.Values = append(s.Values, float64(r.CustomerCount))
	}
	return s
}
