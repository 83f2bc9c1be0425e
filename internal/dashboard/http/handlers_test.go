package dashhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
	"github.com/ramirolandajo/comercio-insights/internal/dashboard/export"
	"github.com/ramirolandajo/comercio-insights/internal/period"
	"github.com/ramirolandajo/comercio-insights/internal/settings"
	"github.com/ramirolandajo/comercio-insights/internal/shared"
	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

type stubService struct {
	summary     upstream.SalesSummary
	summaryErr  error
	trend       dashboard.MetricSeries
	trendErr    error
	daily       dashboard.MetricSeries
	lowStock    []upstream.StockItem
	lowStockErr error
	customers   []dashboard.Customer
	segments    []upstream.CustomerSegment
	timeline    dashboard.Timeline
	timelineErr error
	lastFilter  upstream.TimelineFilter
	products    []upstream.Product
	productsErr error
}

func (s *stubService) Summary(ctx context.Context, p period.Params) (upstream.SalesSummary, error) {
	return s.summary, s.summaryErr
}

func (s *stubService) Trend(ctx context.Context, p period.Params) (dashboard.MetricSeries, error) {
	return s.trend, s.trendErr
}

func (s *stubService) DailySales(ctx context.Context, p period.Params) (dashboard.MetricSeries, error) {
	return s.daily, nil
}

func (s *stubService) TopProducts(ctx context.Context, p period.Params) (dashboard.MetricSeries, error) {
	return series("Unidades vendidas", 12), nil
}

func (s *stubService) TopCategories(ctx context.Context, p period.Params) (dashboard.MetricSeries, error) {
	return series("Cantidad vendida", 7), nil
}

func (s *stubService) TopBrands(ctx context.Context, p period.Params) (dashboard.MetricSeries, error) {
	return series("Ventas", 9), nil
}

func (s *stubService) TopCustomers(ctx context.Context) ([]dashboard.Customer, error) {
	return s.customers, nil
}

func (s *stubService) AtRiskSegments(ctx context.Context, p period.Params) ([]upstream.CustomerSegment, error) {
	return s.segments, nil
}

func (s *stubService) LowStock(ctx context.Context) ([]upstream.StockItem, error) {
	return s.lowStock, s.lowStockErr
}

func (s *stubService) StockHistory(ctx context.Context, productID string) (dashboard.MetricSeries, error) {
	return series("Stock", 5), nil
}

func (s *stubService) StockHistoryByCode(ctx context.Context, productCode string) (dashboard.MetricSeries, error) {
	return series("Stock", 6), nil
}

func (s *stubService) Histogram(ctx context.Context) (dashboard.MetricSeries, error) {
	return series("Frecuencia de compras", 3), nil
}

func (s *stubService) Correlation(ctx context.Context) (dashboard.MetricSeries, error) {
	return series("Regresión", 2), nil
}

func (s *stubService) CategoryGrowth(ctx context.Context, categoryID string) (dashboard.MetricSeries, error) {
	return series("Ventas", 4), nil
}

func (s *stubService) EventsTimeline(ctx context.Context, filter upstream.TimelineFilter) (dashboard.Timeline, error) {
	s.lastFilter = filter
	return s.timeline, s.timelineErr
}

func (s *stubService) Products(ctx context.Context) ([]upstream.Product, error) {
	return s.products, s.productsErr
}

func (s *stubService) ProductByCode(ctx context.Context, code string) (upstream.Product, error) {
	for _, p := range s.products {
		if p.ProductCode == code {
			return p, nil
		}
	}
	return upstream.Product{}, &upstream.StatusError{Path: "/products/by-code/" + code, Code: http.StatusNotFound}
}

type stubPDF struct {
	data []byte
	err  error
	last export.ReportPayload
}

func (s *stubPDF) RenderReport(ctx context.Context, payload export.ReportPayload) ([]byte, error) {
	s.last = payload
	if s.data == nil {
		s.data = []byte("%PDF-1.4\nreport")
	}
	return s.data, s.err
}

func series(label string, values ...float64) dashboard.MetricSeries {
	s := dashboard.MetricSeries{Label: label}
	for i, v := range values {
		s.Points = append(s.Points, dashboard.Point{Category: "c" + string(rune('1'+i)), Value: shared.Float(v)})
	}
	return s
}

func newTestHandler(t *testing.T, service *stubService) *Handler {
	t.Helper()
	periods := period.NewStore(period.WithClock(func() time.Time {
		return time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)
	}))
	prefs := settings.NewStore(nil, settings.ThemeLight)
	return NewHandler(nil, service, periods, prefs, &stubPDF{})
}

func defaultStub() *stubService {
	return &stubService{
		summary: upstream.SalesSummary{
			FacturacionTotal:  1234567,
			TotalVentas:       42,
			ProductosVendidos: 90,
			ClientesActivos:   15,
			CurrentRevenue:    1000,
			PreviousRevenue:   1100,
		},
		trend:     series("Facturación", 100, 200),
		daily:     series("Ventas diarias", 3, 4),
		lowStock:  []upstream.StockItem{{ProductCode: "SKU-1", Title: "Teclado", Stock: 3}},
		customers: []dashboard.Customer{{Name: "Ana", Revenue: 900, Orders: 3, AverageTicket: 300}},
		segments:  []upstream.CustomerSegment{{Segment: "frecuentes", TotalCustomers: 100, AtRiskCustomers: 5}},
		timeline: dashboard.Timeline{
			Days: []string{"2025-02-01", "2025-02-02"},
			Series: []dashboard.MetricSeries{{
				Label:  "Teclado",
				Points: []dashboard.Point{{Category: "2025-02-01", Value: shared.Float(3)}, {Category: "2025-02-02", Value: nil}},
			}},
		},
	}
}

func TestOverviewSuccess(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	req := httptest.NewRequest(http.MethodGet, "/dashboard/overview", nil)
	rr := httptest.NewRecorder()
	handler.handleOverview(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var page OverviewPage
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Summary.FacturacionTotal != "$ 1.234.567" {
		t.Fatalf("unexpected formatted revenue %q", page.Summary.FacturacionTotal)
	}
	if page.Trend.SVG == "" || !strings.HasPrefix(page.Trend.SVG, "<svg") {
		t.Fatalf("expected embedded svg, got %q", page.Trend.SVG)
	}
	if len(page.Alerts) != 1 {
		t.Fatalf("expected only the low-stock alert, got %v", page.Alerts)
	}
	if page.Alerts[0].Title != "Productos con stock crítico" {
		t.Fatalf("unexpected alert %v", page.Alerts[0])
	}
}

func TestOverviewDegradesPerWidget(t *testing.T) {
	stub := defaultStub()
	stub.summaryErr = errors.New("upstream down")
	stub.trendErr = errors.New("upstream down")
	handler := newTestHandler(t, stub)
	req := httptest.NewRequest(http.MethodGet, "/dashboard/overview", nil)
	rr := httptest.NewRecorder()
	handler.handleOverview(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 despite widget failures, got %d", rr.Code)
	}
	var page OverviewPage
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if !page.Summary.Error || page.Summary.FacturacionTotal != shared.Placeholder {
		t.Fatalf("expected summary placeholder, got %+v", page.Summary)
	}
	if !page.Trend.Error || page.Trend.Message != widgetLoadFailed {
		t.Fatalf("expected trend error state, got %+v", page.Trend)
	}
	if page.DailySales.Error {
		t.Fatalf("daily sales should have survived: %+v", page.DailySales)
	}
	for _, alert := range page.Alerts {
		if alert.Title == "Caída de ingresos detectada" {
			t.Fatal("revenue alert must not fire when the summary failed")
		}
	}
}

func TestOverviewRevenueDropAlert(t *testing.T) {
	stub := defaultStub()
	stub.summary.CurrentRevenue = 80
	stub.summary.PreviousRevenue = 100
	stub.lowStock = nil
	handler := newTestHandler(t, stub)
	req := httptest.NewRequest(http.MethodGet, "/dashboard/overview", nil)
	rr := httptest.NewRecorder()
	handler.handleOverview(rr, req)
	var page OverviewPage
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Alerts) != 1 || page.Alerts[0].Title != "Caída de ingresos detectada" {
		t.Fatalf("expected revenue alert, got %v", page.Alerts)
	}
}

func TestProductsRejectsBadCategoryID(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	req := httptest.NewRequest(http.MethodGet, "/dashboard/products?categoryId=abc", nil)
	rr := httptest.NewRecorder()
	handler.handleProducts(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestProductsIncludesGrowthOnlyWhenRequested(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handleProducts(rr, httptest.NewRequest(http.MethodGet, "/dashboard/products", nil))
	var page ProductsPage
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.CategoryGrowth != nil {
		t.Fatal("growth widget should be absent without categoryId")
	}

	rr = httptest.NewRecorder()
	handler.handleProducts(rr, httptest.NewRequest(http.MethodGet, "/dashboard/products?categoryId=7", nil))
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.CategoryGrowth == nil || len(page.CategoryGrowth.Series.Points) == 0 {
		t.Fatalf("expected growth widget, got %+v", page.CategoryGrowth)
	}
}

func TestStockPageEmitsAlert(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handleStock(rr, httptest.NewRequest(http.MethodGet, "/dashboard/stock", nil))
	var page StockPage
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.LowStock.Rows) != 1 || page.LowStock.Rows[0].ProductCode != "SKU-1" {
		t.Fatalf("unexpected rows %v", page.LowStock.Rows)
	}
	if len(page.Alerts) != 1 {
		t.Fatalf("expected low stock alert, got %v", page.Alerts)
	}
}

func TestCustomersPageFormatsRows(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handleCustomers(rr, httptest.NewRequest(http.MethodGet, "/dashboard/customers", nil))
	var page CustomersPage
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.TopCustomers.Rows) != 1 || page.TopCustomers.Rows[0].Revenue != "$ 900" {
		t.Fatalf("unexpected rows %v", page.TopCustomers.Rows)
	}
	if len(page.Alerts) != 0 {
		t.Fatalf("at-risk fraction 0.05 must not alert, got %v", page.Alerts)
	}
}

func TestEventsPageDefaultsToSelectedPeriod(t *testing.T) {
	stub := defaultStub()
	handler := newTestHandler(t, stub)
	rr := httptest.NewRecorder()
	handler.handleEvents(rr, httptest.NewRequest(http.MethodGet, "/dashboard/events?topN=5", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.lastFilter.TopN != 5 {
		t.Fatalf("expected topN=5, got %d", stub.lastFilter.TopN)
	}
	if !strings.HasSuffix(stub.lastFilter.StartDate, "T00:00:00") || !strings.HasSuffix(stub.lastFilter.EndDate, "T23:59:59") {
		t.Fatalf("expected period-scoped filter, got %+v", stub.lastFilter)
	}
	var page EventsPage
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.SVG == "" {
		t.Fatal("expected rendered timeline svg")
	}
}

func TestEventsRejectsBadTopN(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handleEvents(rr, httptest.NewRequest(http.MethodGet, "/dashboard/events?topN=zero", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestPutPeriodValidatesAndPersists(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	body := strings.NewReader(`{"startDate":"2025-01-01","endDate":"2025-01-31"}`)
	rr := httptest.NewRecorder()
	handler.handlePutPeriod(rr, httptest.NewRequest(http.MethodPut, "/settings/period", body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	start, end := handler.periods.Snapshot()
	if start != "2025-01-01" || end != "2025-01-31" {
		t.Fatalf("unexpected range %s..%s", start, end)
	}

	rr = httptest.NewRecorder()
	handler.handlePutPeriod(rr, httptest.NewRequest(http.MethodPut, "/settings/period", strings.NewReader(`{"startDate":"01/01/2025","endDate":"2025-01-31"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date format, got %d", rr.Code)
	}
}

func TestPresetPeriod(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handlePresetPeriod(rr, httptest.NewRequest(http.MethodPost, "/settings/period/preset", strings.NewReader(`{"days":7}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	start, end := handler.periods.Snapshot()
	if start != "2025-02-09" || end != "2025-02-15" {
		t.Fatalf("unexpected preset range %s..%s", start, end)
	}

	rr = httptest.NewRecorder()
	handler.handlePresetPeriod(rr, httptest.NewRequest(http.MethodPost, "/settings/period/preset", strings.NewReader(`{"days":0}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for days=0, got %d", rr.Code)
	}
}

func TestPutThemeValidates(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handlePutTheme(rr, httptest.NewRequest(http.MethodPut, "/settings/theme", strings.NewReader(`{"theme":"dark"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.handlePutTheme(rr, httptest.NewRequest(http.MethodPut, "/settings/theme", strings.NewReader(`{"theme":"sepia"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown theme, got %d", rr.Code)
	}
}

func TestChartCSVExportMapsUpstreamFailureTo502(t *testing.T) {
	stub := defaultStub()
	stub.trendErr = &upstream.StatusError{Path: "/analytics/sales/trend", Code: 500}
	handler := newTestHandler(t, stub)
	rr := httptest.NewRecorder()
	handler.handleChartCSV(rr, httptest.NewRequest(http.MethodGet, "/dashboard/export/chart.csv?widget=trend", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Servicio no disponible") {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestChartCSVExport(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handleChartCSV(rr, httptest.NewRequest(http.MethodGet, "/dashboard/export/chart.csv?widget=trend&fileName=ventas", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="ventas.csv"`) {
		t.Fatalf("unexpected disposition %s", cd)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "label,Facturación\n") {
		t.Fatalf("unexpected header: %q", body)
	}
	if !strings.Contains(body, "\"c1\",100\n") {
		t.Fatalf("expected quoted label row: %q", body)
	}
}

func TestChartCSVRejectsUnknownWidget(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handleChartCSV(rr, httptest.NewRequest(http.MethodGet, "/dashboard/export/chart.csv?widget=nope", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestChartSVGExport(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handleChartSVG(rr, httptest.NewRequest(http.MethodGet, "/dashboard/export/chart.svg?widget=top-products", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if !strings.HasPrefix(rr.Body.String(), "<svg") {
		t.Fatalf("expected svg document, got %q", rr.Body.String())
	}
}

func TestTimelineCSVLeavesGapsEmpty(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	rr := httptest.NewRecorder()
	handler.handleTimelineCSV(rr, httptest.NewRequest(http.MethodGet, "/dashboard/events/export.csv", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "\"2025-02-02\",\n") {
		t.Fatalf("expected empty cell for the gap day: %q", body)
	}
}

func TestOverviewPDFExport(t *testing.T) {
	handler := newTestHandler(t, defaultStub())
	pdf := &stubPDF{}
	handler.pdf = pdf
	rr := httptest.NewRecorder()
	handler.handleOverviewPDF(rr, httptest.NewRequest(http.MethodGet, "/dashboard/overview/export.pdf", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if len(pdf.last.Trend.Points) == 0 {
		t.Fatal("expected payload to include trend data")
	}
}

func TestCatalogProductsServesSelectorOptions(t *testing.T) {
	stub := defaultStub()
	stub.products = []upstream.Product{
		{ProductID: 1, ProductCode: "SKU-1", Title: "Teclado", Category: "Periféricos", Brand: "Logitech", Stock: 3, Price: 45000},
	}
	handler := newTestHandler(t, stub)
	router := chi.NewRouter()
	handler.MountRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/catalog/products", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var options []ProductOption
	if err := json.Unmarshal(rr.Body.Bytes(), &options); err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if len(options) != 1 || options[0].ProductCode != "SKU-1" {
		t.Fatalf("unexpected options: %+v", options)
	}
}

func TestCatalogProductByCode(t *testing.T) {
	stub := defaultStub()
	stub.products = []upstream.Product{{ProductID: 1, ProductCode: "SKU-1", Title: "Teclado"}}
	handler := newTestHandler(t, stub)
	router := chi.NewRouter()
	handler.MountRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/catalog/products/SKU-1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Teclado") {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/catalog/products/NOPE", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"":                 "dashboard",
		"ventas enero":     "ventas-enero",
		"../../etc/passwd": "etc-passwd",
		"reporte_2025":     "reporte_2025",
	}
	for input, want := range cases {
		if got := sanitizeFileName(input); got != want {
			t.Fatalf("sanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}
