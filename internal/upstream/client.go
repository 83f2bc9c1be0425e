// Package upstream is the typed access layer for the analytics/products API.
// One method per endpoint; no business logic beyond defaulting at the decode
// boundary.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ramirolandajo/comercio-insights/internal/period"
)

const defaultTimeout = 15 * time.Second

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: GET %s returned %d", e.Path, e.Code)
}

// Client wraps HTTP access to the remote API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observe    func(path string, err error)
}

// NewClient constructs a client rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// WithHTTPClient overrides the underlying http.Client, used by tests.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.httpClient = client
	}
	return c
}

// WithObserver registers a per-call hook, typically a metrics counter.
func (c *Client) WithObserver(fn func(path string, err error)) *Client {
	c.observe = fn
	return c
}

// SalesSummary fetches the aggregate KPIs for the period.
func (c *Client) SalesSummary(ctx context.Context, p period.Params) (SalesSummary, error) {
	var summary SalesSummary
	err := c.getJSON(ctx, "/analytics/sales/summary", periodQuery(p), &summary)
	return summary, err
}

// SalesTrend fetches the revenue time series for the period.
func (c *Client) SalesTrend(ctx context.Context, p period.Params) ([]TrendPoint, error) {
	var env struct {
		Data []TrendPoint `json:"data"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/trend", periodQuery(p), &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// DailySales fetches the per-day sales counts for the period.
func (c *Client) DailySales(ctx context.Context, p period.Params) ([]DailySalesPoint, error) {
	var env struct {
		Data []DailySalesPoint `json:"data"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/daily-sales", periodQuery(p), &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// TopProducts fetches the server-ranked product list.
func (c *Client) TopProducts(ctx context.Context, p period.Params) ([]RankedProduct, error) {
	var env struct {
		Data []RankedProduct `json:"data"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/top-products", periodQuery(p), &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// TopCategories fetches the server-ranked category list.
func (c *Client) TopCategories(ctx context.Context, p period.Params) ([]RankedCategory, error) {
	var env struct {
		Data []RankedCategory `json:"data"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/top-categories", periodQuery(p), &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// TopBrands fetches the server-ranked brand list.
func (c *Client) TopBrands(ctx context.Context, p period.Params) ([]RankedBrand, error) {
	var env struct {
		Data []RankedBrand `json:"data"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/top-brands", periodQuery(p), &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// TopCustomers fetches the customer ranking.
func (c *Client) TopCustomers(ctx context.Context) ([]RankedCustomer, error) {
	var env struct {
		Data []RankedCustomer `json:"data"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/top-customers", nil, &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// AtRiskSegments fetches churn-risk counts per customer segment.
func (c *Client) AtRiskSegments(ctx context.Context, p period.Params) ([]CustomerSegment, error) {
	var env struct {
		Data []CustomerSegment `json:"data"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/at-risk-customers", periodQuery(p), &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// LowStock fetches products below the server-side stock threshold.
func (c *Client) LowStock(ctx context.Context) ([]StockItem, error) {
	var env struct {
		Data []StockItem `json:"data"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/low-stock", nil, &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// StockHistory fetches one product's stock series by numeric id.
func (c *Client) StockHistory(ctx context.Context, productID string) ([]StockPoint, error) {
	var env struct {
		Data []StockPoint `json:"data"`
	}
	q := url.Values{"productId": {productID}}
	if err := c.getJSON(ctx, "/analytics/sales/stock-history", q, &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// StockHistoryByCode fetches one product's stock series by product code.
func (c *Client) StockHistoryByCode(ctx context.Context, productCode string) ([]StockPoint, error) {
	var env struct {
		Data []StockPoint `json:"data"`
	}
	q := url.Values{"productCode": {productCode}}
	if err := c.getJSON(ctx, "/analytics/sales/stock-history-by-product-code", q, &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Data), nil
}

// Histogram fetches the purchase-frequency histogram buckets.
func (c *Client) Histogram(ctx context.Context) (map[string]float64, error) {
	var env struct {
		Histogram map[string]float64 `json:"histogram"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/histogram", nil, &env); err != nil {
		return nil, err
	}
	if env.Histogram == nil {
		return map[string]float64{}, nil
	}
	return env.Histogram, nil
}

// Correlation fetches the fitted sales regression line.
func (c *Client) Correlation(ctx context.Context) (Regression, error) {
	var env struct {
		Regression Regression `json:"regression"`
	}
	err := c.getJSON(ctx, "/analytics/sales/correlation", nil, &env)
	return env.Regression, err
}

// CategoryGrowth fetches the per-period sales of one category.
func (c *Client) CategoryGrowth(ctx context.Context, categoryID string) (map[string]float64, error) {
	var env struct {
		Growth map[string]float64 `json:"growth"`
	}
	q := url.Values{"categoryId": {categoryID}}
	if err := c.getJSON(ctx, "/analytics/sales/category-growth", q, &env); err != nil {
		return nil, err
	}
	if env.Growth == nil {
		return map[string]float64{}, nil
	}
	return env.Growth, nil
}

// EventsTimeline fetches stock-change events for the timeline chart.
func (c *Client) EventsTimeline(ctx context.Context, filter TimelineFilter) ([]StockEvent, error) {
	q := url.Values{}
	if filter.ProductID != "" {
		q.Set("productId", filter.ProductID)
	}
	if filter.StartDate != "" {
		q.Set("startDate", filter.StartDate)
	}
	if filter.EndDate != "" {
		q.Set("endDate", filter.EndDate)
	}
	if filter.TopN > 0 {
		q.Set("topN", strconv.Itoa(filter.TopN))
	}
	var env struct {
		Events []StockEvent `json:"events"`
	}
	if err := c.getJSON(ctx, "/analytics/sales/product-events-timeline", q, &env); err != nil {
		return nil, err
	}
	return emptyIfNil(env.Events), nil
}

// Products fetches the catalog listing.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	return c.productList(ctx, "/products")
}

// AllProductsData fetches the full catalog payload used by selectors.
func (c *Client) AllProductsData(ctx context.Context) ([]Product, error) {
	return c.productList(ctx, "/products/all-data")
}

// ProductByCode fetches one catalog entry.
func (c *Client) ProductByCode(ctx context.Context, code string) (Product, error) {
	var product Product
	err := c.getJSON(ctx, "/products/by-code/"+url.PathEscape(code), nil, &product)
	return product, err
}

// productList tolerates both the enveloped and the bare-array catalog shapes.
func (c *Client) productList(ctx context.Context, path string) ([]Product, error) {
	raw, err := c.getRaw(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var env struct {
		Data []Product `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		return env.Data, nil
	}
	var list []Product
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("upstream: decode %s: %w", path, err)
	}
	return emptyIfNil(list), nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	raw, err := c.getRaw(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("upstream: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, path string, query url.Values) (raw []byte, err error) {
	if c.observe != nil {
		defer func() { c.observe(path, err) }()
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: GET %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Path: path, Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func periodQuery(p period.Params) url.Values {
	q := url.Values{}
	if p.StartDate != "" {
		q.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("endDate", p.EndDate)
	}
	return q
}

func emptyIfNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
