// Package dashhttp serves the dashboard view models, the settings endpoints
// and the export downloads.
package dashhttp

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
	"github.com/ramirolandajo/comercio-insights/internal/dashboard/export"
	"github.com/ramirolandajo/comercio-insights/internal/dashboard/svg"
	"github.com/ramirolandajo/comercio-insights/internal/period"
	"github.com/ramirolandajo/comercio-insights/internal/settings"
	"github.com/ramirolandajo/comercio-insights/internal/shared"
	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

const requestTimeout = 10 * time.Second

const widgetLoadFailed = "No se pudo cargar el gráfico"

// DashboardService defines the shaped-data contract used by the handlers.
type DashboardService interface {
	Summary(ctx context.Context, p period.Params) (upstream.SalesSummary, error)
	Trend(ctx context.Context, p period.Params) (dashboard.MetricSeries, error)
	DailySales(ctx context.Context, p period.Params) (dashboard.MetricSeries, error)
	TopProducts(ctx context.Context, p period.Params) (dashboard.MetricSeries, error)
	TopCategories(ctx context.Context, p period.Params) (dashboard.MetricSeries, error)
	TopBrands(ctx context.Context, p period.Params) (dashboard.MetricSeries, error)
	TopCustomers(ctx context.Context) ([]dashboard.Customer, error)
	AtRiskSegments(ctx context.Context, p period.Params) ([]upstream.CustomerSegment, error)
	LowStock(ctx context.Context) ([]upstream.StockItem, error)
	StockHistory(ctx context.Context, productID string) (dashboard.MetricSeries, error)
	StockHistoryByCode(ctx context.Context, productCode string) (dashboard.MetricSeries, error)
	Histogram(ctx context.Context) (dashboard.MetricSeries, error)
	Correlation(ctx context.Context) (dashboard.MetricSeries, error)
	CategoryGrowth(ctx context.Context, categoryID string) (dashboard.MetricSeries, error)
	EventsTimeline(ctx context.Context, filter upstream.TimelineFilter) (dashboard.Timeline, error)
	Products(ctx context.Context) ([]upstream.Product, error)
	ProductByCode(ctx context.Context, code string) (upstream.Product, error)
}

// PDFService renders the overview report to PDF bytes.
type PDFService interface {
	RenderReport(ctx context.Context, payload export.ReportPayload) ([]byte, error)
}

// Handler coordinates HTTP requests for the sales dashboard.
type Handler struct {
	logger   *slog.Logger
	service  DashboardService
	periods  *period.Store
	prefs    *settings.Store
	pdf      PDFService
	validate *validator.Validate
	csvPool  sync.Pool
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, periods *period.Store, prefs *settings.Store, pdf PDFService) *Handler {
	h := &Handler{
		logger:   logger,
		service:  service,
		periods:  periods,
		prefs:    prefs,
		pdf:      pdf,
		validate: validator.New(),
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WidgetState mirrors the per-widget degradation contract: a widget either
// carries data, an explicit no-data flag, or an error message. One failing
// widget never fails its page.
type WidgetState struct {
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
	NoData  bool   `json:"noData"`
}

// ChartWidget is a shaped series plus its rendered SVG document.
type ChartWidget struct {
	WidgetState
	Series dashboard.MetricSeries `json:"series"`
	SVG    string                 `json:"svg,omitempty"`
}

// SummaryWidget carries the KPI cards pre-formatted for display.
type SummaryWidget struct {
	WidgetState
	FacturacionTotal  string `json:"facturacionTotal"`
	TotalVentas       string `json:"totalVentas"`
	ProductosVendidos string `json:"productosVendidos"`
	ClientesActivos   string `json:"clientesActivos"`
}

// CustomerRow is a formatted line of the top-customers table.
type CustomerRow struct {
	Name          string `json:"name"`
	Revenue       string `json:"revenue"`
	Orders        string `json:"orders"`
	AverageTicket string `json:"averageTicket"`
}

// TableWidget wraps a rendered table alongside its chart series.
type TableWidget[T any] struct {
	WidgetState
	Rows []T `json:"rows"`
}

// StockRow is a line of the low-stock listing.
type StockRow struct {
	ProductCode string `json:"productCode"`
	Title       string `json:"title"`
	Stock       string `json:"stock"`
}

// PeriodView echoes the active selection on every page.
type PeriodView struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// OverviewPage is the view model of the landing page.
type OverviewPage struct {
	Period     PeriodView              `json:"period"`
	Theme      string                  `json:"theme"`
	Summary    SummaryWidget           `json:"summary"`
	Trend      ChartWidget             `json:"trend"`
	DailySales ChartWidget             `json:"dailySales"`
	Alerts     []dashboard.AlertSignal `json:"alerts"`
}

// ProductsPage is the view model of the product analytics page.
type ProductsPage struct {
	Period         PeriodView   `json:"period"`
	TopProducts    ChartWidget  `json:"topProducts"`
	TopCategories  ChartWidget  `json:"topCategories"`
	TopBrands      ChartWidget  `json:"topBrands"`
	Histogram      ChartWidget  `json:"histogram"`
	Correlation    ChartWidget  `json:"correlation"`
	CategoryGrowth *ChartWidget `json:"categoryGrowth,omitempty"`
}

// StockPage is the view model of the stock control page.
type StockPage struct {
	LowStock      TableWidget[StockRow]   `json:"lowStock"`
	LowStockChart ChartWidget             `json:"lowStockChart"`
	History       *ChartWidget            `json:"history,omitempty"`
	Alerts        []dashboard.AlertSignal `json:"alerts"`
}

// CustomersPage is the view model of the customer analytics page.
type CustomersPage struct {
	Period       PeriodView                            `json:"period"`
	TopCustomers TableWidget[CustomerRow]              `json:"topCustomers"`
	Spending     ChartWidget                           `json:"spending"`
	AtRisk       TableWidget[upstream.CustomerSegment] `json:"atRisk"`
	Alerts       []dashboard.AlertSignal               `json:"alerts"`
}

// EventsPage is the view model of the product-events timeline page.
type EventsPage struct {
	Period   PeriodView         `json:"period"`
	Timeline dashboard.Timeline `json:"timeline"`
	SVG      string             `json:"svg,omitempty"`
	State    WidgetState        `json:"state"`
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p := h.periods.Params()
	page := OverviewPage{Period: PeriodView(p), Alerts: []dashboard.AlertSignal{}}

	theme, err := h.prefs.Theme(ctx)
	if err != nil {
		h.logError("load theme", err)
		theme = settings.ThemeLight
	}
	page.Theme = theme

	var (
		summary    upstream.SalesSummary
		summaryErr error
		lowStock   []upstream.StockItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, summaryErr = h.service.Summary(gctx, p)
		page.Summary = h.summaryWidget(summary, summaryErr)
		return nil
	})
	g.Go(func() error {
		series, err := h.service.Trend(gctx, p)
		page.Trend = h.chartWidget(series, err, h.lineSVG("Facturación", "Facturación total por día"))
		return nil
	})
	g.Go(func() error {
		series, err := h.service.DailySales(gctx, p)
		page.DailySales = h.chartWidget(series, err, h.barSVG("Ventas diarias", "Cantidad de ventas por día"))
		return nil
	})
	g.Go(func() error {
		items, err := h.service.LowStock(gctx)
		if err != nil {
			h.logError("load low stock", err)
			return nil
		}
		lowStock = items
		return nil
	})
	_ = g.Wait()

	if summaryErr == nil {
		if alert := dashboard.EvaluateRevenueDrop(summary.CurrentRevenue, summary.PreviousRevenue); alert != nil {
			page.Alerts = append(page.Alerts, *alert)
		}
	}
	if alert := dashboard.EvaluateLowStock(lowStock); alert != nil {
		page.Alerts = append(page.Alerts, *alert)
	}

	h.respondJSON(w, http.StatusOK, page)
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	categoryID := strings.TrimSpace(r.URL.Query().Get("categoryId"))
	if categoryID != "" {
		if err := h.validate.Var(categoryID, "number"); err != nil {
			h.respondProblem(w, http.StatusBadRequest, "Parámetro inválido", "categoryId debe ser numérico")
			return
		}
	}

	p := h.periods.Params()
	page := ProductsPage{Period: PeriodView(p)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		series, err := h.service.TopProducts(gctx, p)
		page.TopProducts = h.chartWidget(series, err, h.barSVG("Productos más vendidos", "Unidades vendidas por producto"))
		return nil
	})
	g.Go(func() error {
		series, err := h.service.TopCategories(gctx, p)
		page.TopCategories = h.chartWidget(series, err, h.barSVG("Categorías más vendidas", "Cantidad vendida por categoría"))
		return nil
	})
	g.Go(func() error {
		series, err := h.service.TopBrands(gctx, p)
		page.TopBrands = h.chartWidget(series, err, h.barSVG("Marcas más vendidas", "Ventas por marca"))
		return nil
	})
	g.Go(func() error {
		series, err := h.service.Histogram(gctx)
		page.Histogram = h.chartWidget(series, err, h.barSVG("Frecuencia de compras", "Clientes por cantidad de compras"))
		return nil
	})
	g.Go(func() error {
		series, err := h.service.Correlation(gctx)
		page.Correlation = h.chartWidget(series, err, h.lineSVG("Regresión", "Recta de regresión precio-cantidad"))
		return nil
	})
	if categoryID != "" {
		g.Go(func() error {
			series, err := h.service.CategoryGrowth(gctx, categoryID)
			widget := h.chartWidget(series, err, h.lineSVG("Crecimiento de la categoría", "Ventas de la categoría por período"))
			page.CategoryGrowth = &widget
			return nil
		})
	}
	_ = g.Wait()

	h.respondJSON(w, http.StatusOK, page)
}

func (h *Handler) handleStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	query := r.URL.Query()
	productID := strings.TrimSpace(query.Get("productId"))
	productCode := strings.TrimSpace(query.Get("productCode"))
	if productID != "" {
		if err := h.validate.Var(productID, "number"); err != nil {
			h.respondProblem(w, http.StatusBadRequest, "Parámetro inválido", "productId debe ser numérico")
			return
		}
	}

	page := StockPage{Alerts: []dashboard.AlertSignal{}}

	var items []upstream.StockItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := h.service.LowStock(gctx)
		if err != nil {
			h.logError("load low stock", err)
			page.LowStock = TableWidget[StockRow]{WidgetState: errorState()}
			page.LowStockChart = ChartWidget{WidgetState: errorState()}
			return nil
		}
		items = loaded
		page.LowStock = stockTable(loaded)
		page.LowStockChart = h.chartWidget(dashboard.LowStockSeries(loaded), nil, h.barSVG("Stock crítico", "Stock restante por producto"))
		return nil
	})
	switch {
	case productID != "":
		g.Go(func() error {
			series, err := h.service.StockHistory(gctx, productID)
			widget := h.chartWidget(series, err, h.lineSVG("Historial de stock", "Evolución del stock del producto"))
			page.History = &widget
			return nil
		})
	case productCode != "":
		g.Go(func() error {
			series, err := h.service.StockHistoryByCode(gctx, productCode)
			widget := h.chartWidget(series, err, h.lineSVG("Historial de stock", "Evolución del stock del producto"))
			page.History = &widget
			return nil
		})
	}
	_ = g.Wait()

	if alert := dashboard.EvaluateLowStock(items); alert != nil {
		page.Alerts = append(page.Alerts, *alert)
	}

	h.respondJSON(w, http.StatusOK, page)
}

func (h *Handler) handleCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p := h.periods.Params()
	page := CustomersPage{Period: PeriodView(p), Alerts: []dashboard.AlertSignal{}}

	var segments []upstream.CustomerSegment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customers, err := h.service.TopCustomers(gctx)
		if err != nil {
			h.logError("load top customers", err)
			page.TopCustomers = TableWidget[CustomerRow]{WidgetState: errorState()}
			page.Spending = ChartWidget{WidgetState: errorState()}
			return nil
		}
		page.TopCustomers = customerTable(customers)
		page.Spending = h.chartWidget(spendingSeries(customers), nil, h.barSVG("Mejores clientes", "Gasto total por cliente"))
		return nil
	})
	g.Go(func() error {
		loaded, err := h.service.AtRiskSegments(gctx, p)
		if err != nil {
			h.logError("load at-risk segments", err)
			page.AtRisk = TableWidget[upstream.CustomerSegment]{WidgetState: errorState()}
			return nil
		}
		segments = loaded
		page.AtRisk = TableWidget[upstream.CustomerSegment]{Rows: loaded, WidgetState: WidgetState{NoData: len(loaded) == 0}}
		return nil
	})
	_ = g.Wait()

	if alert := dashboard.EvaluateAtRiskCustomers(segments); alert != nil {
		page.Alerts = append(page.Alerts, *alert)
	}

	h.respondJSON(w, http.StatusOK, page)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	filter, err := h.parseTimelineFilter(r)
	if err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Parámetro inválido", err.Error())
		return
	}

	page := EventsPage{Period: PeriodView{StartDate: filter.StartDate, EndDate: filter.EndDate}}

	timeline, err := h.service.EventsTimeline(ctx, filter)
	if err != nil {
		h.logError("load events timeline", err)
		page.State = errorState()
		h.respondJSON(w, http.StatusOK, page)
		return
	}
	page.Timeline = timeline
	if len(timeline.Days) == 0 {
		page.State = WidgetState{NoData: true}
		h.respondJSON(w, http.StatusOK, page)
		return
	}
	doc, err := svg.MultiLine(svg.DefaultWidth, svg.DefaultHeight, timeline, svg.MultiLineOpts{
		Title:       "Eventos de stock",
		Description: "Stock por producto a lo largo del período",
		ShowDots:    true,
	})
	if err != nil {
		h.logError("render timeline svg", err)
	} else {
		page.SVG = string(doc)
	}

	h.respondJSON(w, http.StatusOK, page)
}

func (h *Handler) parseTimelineFilter(r *http.Request) (upstream.TimelineFilter, error) {
	query := r.URL.Query()
	p := h.periods.Params()
	filter := upstream.TimelineFilter{
		ProductID: strings.TrimSpace(query.Get("productId")),
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
	}
	if filter.ProductID != "" {
		if err := h.validate.Var(filter.ProductID, "number"); err != nil {
			return upstream.TimelineFilter{}, validationError{field: "productId"}
		}
	}
	if raw := strings.TrimSpace(query.Get("topN")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return upstream.TimelineFilter{}, validationError{field: "topN"}
		}
		if err := h.validate.Var(n, "gte=1,lte=50"); err != nil {
			return upstream.TimelineFilter{}, validationError{field: "topN"}
		}
		filter.TopN = n
	}
	return filter, nil
}

func (h *Handler) summaryWidget(summary upstream.SalesSummary, err error) SummaryWidget {
	if err != nil {
		h.logError("load summary", err)
		return SummaryWidget{
			WidgetState:       errorState(),
			FacturacionTotal:  shared.Placeholder,
			TotalVentas:       shared.Placeholder,
			ProductosVendidos: shared.Placeholder,
			ClientesActivos:   shared.Placeholder,
		}
	}
	return SummaryWidget{
		FacturacionTotal:  shared.FormatCurrency(shared.Float(summary.FacturacionTotal)),
		TotalVentas:       shared.FormatNumber(shared.Float(summary.TotalVentas)),
		ProductosVendidos: shared.FormatNumber(shared.Float(summary.ProductosVendidos)),
		ClientesActivos:   shared.FormatNumber(shared.Float(summary.ClientesActivos)),
	}
}

func (h *Handler) chartWidget(series dashboard.MetricSeries, err error, render func(dashboard.MetricSeries) (template.HTML, error)) ChartWidget {
	if err != nil {
		h.logError("load widget", err)
		return ChartWidget{WidgetState: errorState()}
	}
	if len(series.Points) == 0 {
		return ChartWidget{WidgetState: WidgetState{NoData: true}, Series: series}
	}
	widget := ChartWidget{Series: series}
	doc, renderErr := render(series)
	if renderErr != nil {
		h.logError("render widget svg", renderErr)
		return widget
	}
	widget.SVG = string(doc)
	return widget
}

func (h *Handler) lineSVG(title, description string) func(dashboard.MetricSeries) (template.HTML, error) {
	return func(series dashboard.MetricSeries) (template.HTML, error) {
		return svg.Line(svg.DefaultWidth, svg.DefaultHeight, series, svg.LineOpts{
			Title:       title,
			Description: description,
			ShowDots:    true,
		})
	}
}

func (h *Handler) barSVG(title, description string) func(dashboard.MetricSeries) (template.HTML, error) {
	return func(series dashboard.MetricSeries) (template.HTML, error) {
		return svg.Bars(svg.DefaultWidth, svg.DefaultHeight, series, svg.BarOpts{
			Title:       title,
			Description: description,
		})
	}
}

func stockTable(items []upstream.StockItem) TableWidget[StockRow] {
	rows := make([]StockRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, StockRow{
			ProductCode: item.ProductCode,
			Title:       item.Title,
			Stock:       shared.FormatNumber(shared.Float(item.Stock)),
		})
	}
	return TableWidget[StockRow]{Rows: rows, WidgetState: WidgetState{NoData: len(rows) == 0}}
}

func customerTable(customers []dashboard.Customer) TableWidget[CustomerRow] {
	rows := make([]CustomerRow, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, CustomerRow{
			Name:          c.Name,
			Revenue:       shared.FormatCurrency(shared.Float(c.Revenue)),
			Orders:        shared.FormatNumber(shared.Float(c.Orders)),
			AverageTicket: shared.FormatCurrency(shared.Float(c.AverageTicket)),
		})
	}
	return TableWidget[CustomerRow]{Rows: rows, WidgetState: WidgetState{NoData: len(rows) == 0}}
}

func spendingSeries(customers []dashboard.Customer) dashboard.MetricSeries {
	series := dashboard.MetricSeries{Label: "Gasto total"}
	for _, c := range customers {
		series.Points = append(series.Points, dashboard.Point{Category: c.Name, Value: shared.Float(c.Revenue)})
	}
	return series
}

func errorState() WidgetState {
	return WidgetState{Error: true, Message: widgetLoadFailed}
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return "invalid " + v.field
}
