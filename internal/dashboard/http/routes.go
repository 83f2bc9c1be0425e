package dashhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/ramirolandajo/comercio-insights/internal/platform/httpx"
)

// MountRoutes registers the dashboard endpoints onto the router. Export
// downloads share a per-IP rate limit; page and settings endpoints do not.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/dashboard/overview", h.handleOverview)
	r.Get("/dashboard/products", h.handleProducts)
	r.Get("/dashboard/stock", h.handleStock)
	r.Get("/dashboard/customers", h.handleCustomers)
	r.Get("/dashboard/events", h.handleEvents)
	r.Get("/dashboard/catalog/products", h.handleCatalogProducts)
	r.Get("/dashboard/catalog/products/{code}", h.handleCatalogProduct)

	r.Get("/settings/period", h.handleGetPeriod)
	r.Put("/settings/period", h.handlePutPeriod)
	r.Post("/settings/period/preset", h.handlePresetPeriod)
	r.Get("/settings/theme", h.handleGetTheme)
	r.Put("/settings/theme", h.handlePutTheme)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/dashboard/export/chart.csv", h.handleChartCSV)
		gr.Get("/dashboard/export/chart.svg", h.handleChartSVG)
		gr.Get("/dashboard/events/export.csv", h.handleTimelineCSV)
		gr.Get("/dashboard/events/export.svg", h.handleTimelineSVG)
		gr.Get("/dashboard/stock/export.csv", h.handleStockCSV)
		gr.Get("/dashboard/overview/export.csv", h.handleOverviewCSV)
		gr.Get("/dashboard/overview/export.pdf", h.handleOverviewPDF)
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	httpx.JSON(w, status, data)
}

func (h *Handler) respondProblem(w http.ResponseWriter, status int, title, detail string) {
	httpx.Problem(w, status, title, detail)
}

func (h *Handler) respondServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.Problem(w, http.StatusInternalServerError, "Error interno", "")
}
