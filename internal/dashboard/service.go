// Package dashboard shapes raw analytics API payloads into the series, alert
// and view-model structures the dashboard renders. All aggregation beyond
// shaping happens server-side; nothing here recomputes business figures.
package dashboard

import (
	"context"
	"strconv"

	"github.com/ramirolandajo/comercio-insights/internal/period"
	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

// Upstream is the slice of the API client the service depends on.
type Upstream interface {
	SalesSummary(ctx context.Context, p period.Params) (upstream.SalesSummary, error)
	SalesTrend(ctx context.Context, p period.Params) ([]upstream.TrendPoint, error)
	DailySales(ctx context.Context, p period.Params) ([]upstream.DailySalesPoint, error)
	TopProducts(ctx context.Context, p period.Params) ([]upstream.RankedProduct, error)
	TopCategories(ctx context.Context, p period.Params) ([]upstream.RankedCategory, error)
	TopBrands(ctx context.Context, p period.Params) ([]upstream.RankedBrand, error)
	TopCustomers(ctx context.Context) ([]upstream.RankedCustomer, error)
	AtRiskSegments(ctx context.Context, p period.Params) ([]upstream.CustomerSegment, error)
	LowStock(ctx context.Context) ([]upstream.StockItem, error)
	StockHistory(ctx context.Context, productID string) ([]upstream.StockPoint, error)
	StockHistoryByCode(ctx context.Context, productCode string) ([]upstream.StockPoint, error)
	Histogram(ctx context.Context) (map[string]float64, error)
	Correlation(ctx context.Context) (upstream.Regression, error)
	CategoryGrowth(ctx context.Context, categoryID string) (map[string]float64, error)
	EventsTimeline(ctx context.Context, filter upstream.TimelineFilter) ([]upstream.StockEvent, error)
	Products(ctx context.Context) ([]upstream.Product, error)
	ProductByCode(ctx context.Context, code string) (upstream.Product, error)
}

// Customer is the shaped top-customers table row.
type Customer struct {
	Name          string  `json:"name"`
	Revenue       float64 `json:"revenue"`
	Orders        float64 `json:"orders"`
	AverageTicket float64 `json:"averageTicket"`
}

// Service coordinates upstream fetches with the cache layer and the shaping
// pipeline. Every method is safe for concurrent use.
type Service struct {
	api   Upstream
	cache *Cache
}

// NewService wires the upstream client with a Cache helper.
func NewService(api Upstream, cache *Cache) *Service {
	return &Service{api: api, cache: cache}
}

// Cache exposes the cache helper for invalidation wiring.
func (s *Service) Cache() *Cache {
	return s.cache
}

func periodToken(p period.Params) string {
	return p.StartDate + ".." + p.EndDate
}

// fetch resolves a value through the cache, shaping inside the loader so hits
// skip both the network call and the transform.
func fetch[T any](ctx context.Context, s *Service, keyParts []string, loader func(context.Context) (T, error)) (T, error) {
	wrapped := func(ctx context.Context) (interface{}, error) {
		return loader(ctx)
	}
	var out T
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return out, err
		}
		return value, nil
	}
	key, err := s.cache.BuildKey(ctx, keyParts...)
	if err != nil {
		return out, err
	}
	if err := s.cache.FetchJSON(ctx, key, &out, wrapped); err != nil {
		return out, err
	}
	return out, nil
}

// Summary returns the period KPIs.
func (s *Service) Summary(ctx context.Context, p period.Params) (upstream.SalesSummary, error) {
	return fetch(ctx, s, cacheKey("summary", periodToken(p)), func(ctx context.Context) (upstream.SalesSummary, error) {
		return s.api.SalesSummary(ctx, p)
	})
}

// Trend returns the shaped revenue trend series.
func (s *Service) Trend(ctx context.Context, p period.Params) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("trend", periodToken(p)), func(ctx context.Context) (MetricSeries, error) {
		rows, err := s.api.SalesTrend(ctx, p)
		if err != nil {
			return MetricSeries{}, err
		}
		return TrendSeries(rows), nil
	})
}

// DailySales returns the shaped per-day sales series.
func (s *Service) DailySales(ctx context.Context, p period.Params) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("daily_sales", periodToken(p)), func(ctx context.Context) (MetricSeries, error) {
		rows, err := s.api.DailySales(ctx, p)
		if err != nil {
			return MetricSeries{}, err
		}
		return DailySalesSeries(rows), nil
	})
}

// TopProducts returns the shaped product ranking.
func (s *Service) TopProducts(ctx context.Context, p period.Params) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("top_products", periodToken(p)), func(ctx context.Context) (MetricSeries, error) {
		rows, err := s.api.TopProducts(ctx, p)
		if err != nil {
			return MetricSeries{}, err
		}
		return TopProductsSeries(rows), nil
	})
}

// TopCategories returns the shaped category ranking.
func (s *Service) TopCategories(ctx context.Context, p period.Params) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("top_categories", periodToken(p)), func(ctx context.Context) (MetricSeries, error) {
		rows, err := s.api.TopCategories(ctx, p)
		if err != nil {
			return MetricSeries{}, err
		}
		return TopCategoriesSeries(rows), nil
	})
}

// TopBrands returns the shaped brand ranking.
func (s *Service) TopBrands(ctx context.Context, p period.Params) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("top_brands", periodToken(p)), func(ctx context.Context) (MetricSeries, error) {
		rows, err := s.api.TopBrands(ctx, p)
		if err != nil {
			return MetricSeries{}, err
		}
		return TopBrandsSeries(rows), nil
	})
}

// TopCustomers returns the shaped customer rows with the derived average
// ticket. A customer without recorded sales gets a zero ticket, not a NaN.
func (s *Service) TopCustomers(ctx context.Context) ([]Customer, error) {
	return fetch(ctx, s, cacheKey("top_customers"), func(ctx context.Context) ([]Customer, error) {
		rows, err := s.api.TopCustomers(ctx)
		if err != nil {
			return nil, err
		}
		customers := make([]Customer, 0, len(rows))
		for _, row := range rows {
			ticket := 0.0
			if row.Ventas > 0 {
				ticket = row.TotalSpent / row.Ventas
			}
			customers = append(customers, Customer{
				Name:          row.Name,
				Revenue:       row.TotalSpent,
				Orders:        row.Ventas,
				AverageTicket: ticket,
			})
		}
		return customers, nil
	})
}

// AtRiskSegments returns the churn-risk counts per segment.
func (s *Service) AtRiskSegments(ctx context.Context, p period.Params) ([]upstream.CustomerSegment, error) {
	return fetch(ctx, s, cacheKey("at_risk", periodToken(p)), func(ctx context.Context) ([]upstream.CustomerSegment, error) {
		return s.api.AtRiskSegments(ctx, p)
	})
}

// LowStock returns the raw low-stock listing, used by both the stock table
// and the alert evaluator.
func (s *Service) LowStock(ctx context.Context) ([]upstream.StockItem, error) {
	return fetch(ctx, s, cacheKey("low_stock"), func(ctx context.Context) ([]upstream.StockItem, error) {
		return s.api.LowStock(ctx)
	})
}

// StockHistory returns the shaped stock series for one product id.
func (s *Service) StockHistory(ctx context.Context, productID string) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("stock_history", productID), func(ctx context.Context) (MetricSeries, error) {
		rows, err := s.api.StockHistory(ctx, productID)
		if err != nil {
			return MetricSeries{}, err
		}
		return StockHistorySeries("Stock", rows), nil
	})
}

// StockHistoryByCode returns the shaped stock series for one product code.
func (s *Service) StockHistoryByCode(ctx context.Context, productCode string) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("stock_history_code", productCode), func(ctx context.Context) (MetricSeries, error) {
		rows, err := s.api.StockHistoryByCode(ctx, productCode)
		if err != nil {
			return MetricSeries{}, err
		}
		return StockHistorySeries(productCode, rows), nil
	})
}

// Histogram returns the shaped purchase-frequency series.
func (s *Service) Histogram(ctx context.Context) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("histogram"), func(ctx context.Context) (MetricSeries, error) {
		buckets, err := s.api.Histogram(ctx)
		if err != nil {
			return MetricSeries{}, err
		}
		return HistogramSeries(buckets), nil
	})
}

// Correlation returns the sampled regression series.
func (s *Service) Correlation(ctx context.Context) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("correlation"), func(ctx context.Context) (MetricSeries, error) {
		reg, err := s.api.Correlation(ctx)
		if err != nil {
			return MetricSeries{}, err
		}
		return RegressionSeries(reg), nil
	})
}

// CategoryGrowth returns the shaped growth series for one category.
func (s *Service) CategoryGrowth(ctx context.Context, categoryID string) (MetricSeries, error) {
	return fetch(ctx, s, cacheKey("category_growth", categoryID), func(ctx context.Context) (MetricSeries, error) {
		growth, err := s.api.CategoryGrowth(ctx, categoryID)
		if err != nil {
			return MetricSeries{}, err
		}
		return CategoryGrowthSeries(growth), nil
	})
}

// EventsTimeline returns the shaped per-product stock-change matrix.
func (s *Service) EventsTimeline(ctx context.Context, filter upstream.TimelineFilter) (Timeline, error) {
	key := cacheKey("events_timeline", filter.ProductID, filter.StartDate, filter.EndDate, itoaOrEmpty(filter.TopN))
	return fetch(ctx, s, key, func(ctx context.Context) (Timeline, error) {
		events, err := s.api.EventsTimeline(ctx, filter)
		if err != nil {
			return Timeline{}, err
		}
		return BuildTimeline(events), nil
	})
}

// Products returns the catalog listing, uncached: selectors need the live
// list and the payload is small.
func (s *Service) Products(ctx context.Context) ([]upstream.Product, error) {
	return s.api.Products(ctx)
}

// ProductByCode returns one catalog entry.
func (s *Service) ProductByCode(ctx context.Context, code string) (upstream.Product, error) {
	return s.api.ProductByCode(ctx, code)
}

func itoaOrEmpty(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}
