package dashboard

import (
	"sort"

	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

// Timeline is the shaped product-events matrix: one shared day axis and one
// aligned series per product.
type Timeline struct {
	Days   []string       `json:"days"`
	Series []MetricSeries `json:"series"`
}

// BuildTimeline groups stock-change events into a per-date, per-product
// matrix for multi-line rendering.
//
// The day bucket is the first 10 characters of the event's ISO date: a
// textual truncation, not a timezone-aware conversion. Day strings sort
// lexicographically, which for YYYY-MM-DD is chronological. When a product
// has two events on the same day the later-processed one wins (last write
// wins by input order); values are never summed or averaged. Days where a
// product has no event yield a nil point, a gap for the renderer.
func BuildTimeline(events []upstream.StockEvent) Timeline {
	daySet := make(map[string]struct{})
	perProduct := make(map[string]map[string]float64)
	productOrder := make([]string, 0)

	for _, ev := range events {
		day := ev.Date
		if len(day) > 10 {
			day = day[:10]
		}
		daySet[day] = struct{}{}
		byDay, ok := perProduct[ev.ProductTitle]
		if !ok {
			byDay = make(map[string]float64)
			perProduct[ev.ProductTitle] = byDay
			productOrder = append(productOrder, ev.ProductTitle)
		}
		byDay[day] = ev.NewStock
	}

	days := make([]string, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Strings(days)

	series := make([]MetricSeries, 0, len(productOrder))
	for _, product := range productOrder {
		byDay := perProduct[product]
		points := make([]Point, 0, len(days))
		for _, day := range days {
			if stock, ok := byDay[day]; ok {
				points = append(points, Point{Category: day, Value: value(stock)})
			} else {
				points = append(points, Point{Category: day})
			}
		}
		series = append(series, MetricSeries{Label: product, Points: points})
	}
	return Timeline{Days: days, Series: series}
}
