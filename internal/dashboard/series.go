package dashboard

import (
	"sort"
	"strconv"

	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

// Point is one (category, value) pair of a chart series. A nil Value is a
// gap: renderers must break the line there, never substitute zero.
type Point struct {
	Category string   `json:"category"`
	Value    *float64 `json:"value"`
}

// MetricSeries is a named, ordered sequence of points ready for rendering.
// Instances are built fresh from each response and never mutated afterwards.
type MetricSeries struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

func value(v float64) *float64 {
	return &v
}

// TrendSeries projects the revenue trend rows, preserving server order.
func TrendSeries(rows []upstream.TrendPoint) MetricSeries {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{Category: row.Date, Value: value(row.Total)})
	}
	return MetricSeries{Label: "Facturación", Points: points}
}

// DailySalesSeries projects the per-day sales counts.
func DailySalesSeries(rows []upstream.DailySalesPoint) MetricSeries {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{Category: row.Date, Value: value(row.CantidadVentas)})
	}
	return MetricSeries{Label: "Ventas diarias", Points: points}
}

// TopProductsSeries projects the product ranking. Ordering and top-N
// truncation are server-side; no client sorting happens here.
func TopProductsSeries(rows []upstream.RankedProduct) MetricSeries {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{Category: row.Title, Value: value(row.UnidadesVendidas)})
	}
	return MetricSeries{Label: "Unidades vendidas", Points: points}
}

// TopCategoriesSeries projects the category ranking.
func TopCategoriesSeries(rows []upstream.RankedCategory) MetricSeries {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{Category: row.Category, Value: value(row.CantidadVendida)})
	}
	return MetricSeries{Label: "Cantidad vendida", Points: points}
}

// TopBrandsSeries projects the brand ranking.
func TopBrandsSeries(rows []upstream.RankedBrand) MetricSeries {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{Category: row.Brand, Value: value(row.CantidadVendida)})
	}
	return MetricSeries{Label: "Ventas", Points: points}
}

// TopCustomersSeries projects the customer ranking by total spend.
func TopCustomersSeries(rows []upstream.RankedCustomer) MetricSeries {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{Category: row.Name, Value: value(row.TotalSpent)})
	}
	return MetricSeries{Label: "Gasto total", Points: points}
}

// LowStockSeries projects the low-stock listing.
func LowStockSeries(rows []upstream.StockItem) MetricSeries {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{Category: row.Title, Value: value(row.Stock)})
	}
	return MetricSeries{Label: "Stock", Points: points}
}

// StockHistorySeries projects one product's stock observations.
func StockHistorySeries(label string, rows []upstream.StockPoint) MetricSeries {
	if label == "" {
		label = "Stock"
	}
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{Category: row.Date, Value: value(row.NewStock)})
	}
	return MetricSeries{Label: label, Points: points}
}

// HistogramSeries projects the purchase-frequency buckets. JSON objects carry
// no ordering, so bucket keys are sorted for deterministic output.
func HistogramSeries(buckets map[string]float64) MetricSeries {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	points := make([]Point, 0, len(keys))
	for _, key := range keys {
		points = append(points, Point{Category: key, Value: value(buckets[key])})
	}
	return MetricSeries{Label: "Frecuencia de compras", Points: points}
}

// CategoryGrowthSeries projects the per-period category sales map, keys
// sorted (periods are ISO-prefixed, so the sort is chronological).
func CategoryGrowthSeries(growth map[string]float64) MetricSeries {
	keys := make([]string, 0, len(growth))
	for key := range growth {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	points := make([]Point, 0, len(keys))
	for _, key := range keys {
		points = append(points, Point{Category: key, Value: value(growth[key])})
	}
	return MetricSeries{Label: "Ventas", Points: points}
}

// regressionSampleCount matches the 10 sampled x positions the dashboard
// always rendered for the fitted line.
const regressionSampleCount = 10

// RegressionSeries samples the fitted line y = a*x + b at x = 0..9.
func RegressionSeries(reg upstream.Regression) MetricSeries {
	points := make([]Point, 0, regressionSampleCount)
	for i := 0; i < regressionSampleCount; i++ {
		x := float64(i)
		points = append(points, Point{
			Category: strconv.Itoa(i),
			Value:    value(reg.A*x + reg.B),
		})
	}
	return MetricSeries{Label: "Regresión", Points: points}
}
