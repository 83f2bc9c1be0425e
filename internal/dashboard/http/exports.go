package dashhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
	"github.com/ramirolandajo/comercio-insights/internal/dashboard/export"
	"github.com/ramirolandajo/comercio-insights/internal/dashboard/svg"
	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

var fileNamePattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

var errUnknownWidget = errors.New("unknown widget")

// handleChartCSV downloads one widget's shaped series as `{fileName}.csv` in
// the always-quoted-label format the dashboard's spreadsheet users expect.
func (h *Handler) handleChartCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	series, err := h.widgetSeries(ctx, r.URL.Query().Get("widget"))
	if err != nil {
		h.respondExportError(w, err)
		return
	}

	labels := make([]string, 0, len(series.Points))
	for _, point := range series.Points {
		labels = append(labels, point.Category)
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteChartCSV(buf, labels, []dashboard.MetricSeries{series}); err != nil {
		h.respondServerError(w, "write chart csv", err)
		return
	}
	h.streamAttachment(w, r, "text/csv; charset=utf-8", "csv", buf.Bytes())
}

// handleChartSVG downloads the widget's rendered chart as `{fileName}.svg`.
func (h *Handler) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	widget := r.URL.Query().Get("widget")
	series, err := h.widgetSeries(ctx, widget)
	if err != nil {
		h.respondExportError(w, err)
		return
	}

	var doc template.HTML
	switch widget {
	case "trend", "correlation":
		doc, err = h.lineSVG(series.Label, "")(series)
	default:
		doc, err = h.barSVG(series.Label, "")(series)
	}
	if err != nil {
		h.respondServerError(w, "render chart svg", err)
		return
	}
	h.streamAttachment(w, r, "image/svg+xml", "svg", []byte(doc))
}

// handleTimelineCSV downloads the assembled events timeline, one column per
// product series.
func (h *Handler) handleTimelineCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	filter, err := h.parseTimelineFilter(r)
	if err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Parámetro inválido", err.Error())
		return
	}
	timeline, err := h.service.EventsTimeline(ctx, filter)
	if err != nil {
		h.respondServerError(w, "load events timeline", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteTimelineCSV(buf, timeline); err != nil {
		h.respondServerError(w, "write timeline csv", err)
		return
	}
	h.streamAttachment(w, r, "text/csv; charset=utf-8", "csv", buf.Bytes())
}

func (h *Handler) handleTimelineSVG(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	filter, err := h.parseTimelineFilter(r)
	if err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Parámetro inválido", err.Error())
		return
	}
	timeline, err := h.service.EventsTimeline(ctx, filter)
	if err != nil {
		h.respondServerError(w, "load events timeline", err)
		return
	}
	doc, err := svg.MultiLine(svg.DefaultWidth, svg.DefaultHeight, timeline, svg.MultiLineOpts{
		Title:       "Eventos de stock",
		Description: "Stock por producto a lo largo del período",
		ShowDots:    true,
	})
	if err != nil {
		h.respondServerError(w, "render timeline svg", err)
		return
	}
	h.streamAttachment(w, r, "image/svg+xml", "svg", []byte(doc))
}

// handleStockCSV downloads the low-stock listing as rows.
func (h *Handler) handleStockCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	items, err := h.service.LowStock(ctx)
	if err != nil {
		h.respondServerError(w, "load low stock", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteLowStockCSV(buf, items); err != nil {
		h.respondServerError(w, "write low stock csv", err)
		return
	}
	h.streamAttachment(w, r, "text/csv; charset=utf-8", "csv", buf.Bytes())
}

// handleOverviewCSV downloads the KPI summary plus the trend series as one
// sectioned file.
func (h *Handler) handleOverviewCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p := h.periods.Params()
	summary, err := h.service.Summary(ctx, p)
	if err != nil {
		h.respondServerError(w, "load summary", err)
		return
	}
	trend, err := h.service.Trend(ctx, p)
	if err != nil {
		h.respondServerError(w, "load trend", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	start, end := h.periods.Snapshot()
	if err := export.WriteSummaryCSV(buf, summary, start+".."+end); err != nil {
		h.respondServerError(w, "write summary csv", err)
		return
	}
	buf.WriteString("\n")
	labels := make([]string, 0, len(trend.Points))
	for _, point := range trend.Points {
		labels = append(labels, point.Category)
	}
	if err := export.WriteChartCSV(buf, labels, []dashboard.MetricSeries{trend}); err != nil {
		h.respondServerError(w, "write trend csv", err)
		return
	}
	h.streamAttachment(w, r, "text/csv; charset=utf-8", "csv", buf.Bytes())
}

// handleOverviewPDF renders the overview report through Gotenberg.
func (h *Handler) handleOverviewPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.respondServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p := h.periods.Params()
	payload := export.ReportPayload{}
	start, end := h.periods.Snapshot()
	payload.Period = start + ".." + end

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := h.service.Summary(gctx, p)
		if err != nil {
			return err
		}
		payload.Summary = summary
		if alert := dashboard.EvaluateRevenueDrop(summary.CurrentRevenue, summary.PreviousRevenue); alert != nil {
			payload.Alerts = append(payload.Alerts, *alert)
		}
		return nil
	})
	g.Go(func() error {
		trend, err := h.service.Trend(gctx, p)
		if err != nil {
			return err
		}
		payload.Trend = trend
		return nil
	})
	g.Go(func() error {
		top, err := h.service.TopProducts(gctx, p)
		if err != nil {
			return err
		}
		payload.TopProducts = top
		return nil
	})
	if err := g.Wait(); err != nil {
		h.respondServerError(w, "load report data", err)
		return
	}

	pdfBytes, err := h.pdf.RenderReport(ctx, payload)
	if err != nil {
		h.respondServerError(w, "render pdf", err)
		return
	}
	h.streamAttachment(w, r, "application/pdf", "pdf", pdfBytes)
}

func (h *Handler) widgetSeries(ctx context.Context, widget string) (dashboard.MetricSeries, error) {
	p := h.periods.Params()
	switch widget {
	case "trend":
		return h.service.Trend(ctx, p)
	case "daily-sales":
		return h.service.DailySales(ctx, p)
	case "top-products":
		return h.service.TopProducts(ctx, p)
	case "top-categories":
		return h.service.TopCategories(ctx, p)
	case "top-brands":
		return h.service.TopBrands(ctx, p)
	case "histogram":
		return h.service.Histogram(ctx)
	case "correlation":
		return h.service.Correlation(ctx)
	case "low-stock":
		items, err := h.service.LowStock(ctx)
		if err != nil {
			return dashboard.MetricSeries{}, err
		}
		return dashboard.LowStockSeries(items), nil
	default:
		return dashboard.MetricSeries{}, fmt.Errorf("%w: %q", errUnknownWidget, widget)
	}
}

func (h *Handler) streamAttachment(w http.ResponseWriter, r *http.Request, contentType, extension string, data []byte) {
	name := sanitizeFileName(r.URL.Query().Get("fileName"))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.%s\"", name, extension))
	if _, err := w.Write(data); err != nil {
		h.logError("stream attachment", err)
	}
}

func sanitizeFileName(name string) string {
	name = fileNamePattern.ReplaceAllString(strings.TrimSpace(name), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "dashboard"
	}
	return name
}

func (h *Handler) respondExportError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnknownWidget) {
		h.respondProblem(w, http.StatusBadRequest, "Parámetro inválido", err.Error())
		return
	}
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		h.logError("load widget series", err)
		h.respondProblem(w, http.StatusBadGateway, "Servicio no disponible", "La API de analítica no respondió correctamente.")
		return
	}
	h.respondServerError(w, "load widget series", err)
}
