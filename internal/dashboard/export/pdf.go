package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
	"github.com/ramirolandajo/comercio-insights/internal/shared"
	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

// ReportPayload aggregates the overview page data destined for PDF rendering.
type ReportPayload struct {
	Period      string
	Summary     upstream.SalesSummary
	Trend       dashboard.MetricSeries
	TopProducts dashboard.MetricSeries
	Alerts      []dashboard.AlertSignal
}

// PDFExporter wraps Gotenberg interactions for dashboard report exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderReport sends HTML content to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderReport(ctx context.Context, payload ReportPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html := buildHTML(payload)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "report.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func buildHTML(payload ReportPayload) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .metric-label{text-align:left;} .alert{border:1px solid #fca5a5;background:#fef2f2;padding:8px;margin-bottom:8px;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>Reporte de ventas – %s</h1>", templateEscape(payload.Period)))

	for _, alert := range payload.Alerts {
		b.WriteString("<div class=\"alert\"><strong>")
		b.WriteString(templateEscape(alert.Title))
		b.WriteString("</strong> ")
		b.WriteString(templateEscape(alert.Description))
		b.WriteString("</div>")
	}

	b.WriteString("<section><h2>Resumen</h2><table><tbody>")
	writeCurrencyRow(&b, "Facturación total", payload.Summary.FacturacionTotal)
	writeMetricRow(&b, "Ventas", payload.Summary.TotalVentas)
	writeMetricRow(&b, "Productos vendidos", payload.Summary.ProductosVendidos)
	writeMetricRow(&b, "Clientes activos", payload.Summary.ClientesActivos)
	writeCurrencyRow(&b, "Ingresos del período", payload.Summary.CurrentRevenue)
	writeCurrencyRow(&b, "Ingresos del período anterior", payload.Summary.PreviousRevenue)
	b.WriteString("</tbody></table></section>")

	writeSeriesSection(&b, "Facturación diaria", payload.Trend)
	writeSeriesSection(&b, "Productos más vendidos", payload.TopProducts)

	b.WriteString("</body></html>")
	return b.String()
}

func writeSeriesSection(b *strings.Builder, title string, series dashboard.MetricSeries) {
	if len(series.Points) == 0 {
		return
	}
	b.WriteString("<section><h2>")
	b.WriteString(templateEscape(title))
	b.WriteString("</h2><table><thead><tr><th>")
	b.WriteString(templateEscape("Etiqueta"))
	b.WriteString("</th><th>")
	b.WriteString(templateEscape(series.Label))
	b.WriteString("</th></tr></thead><tbody>")
	for _, point := range series.Points {
		b.WriteString("<tr><td class=\"metric-label\">")
		b.WriteString(templateEscape(point.Category))
		b.WriteString("</td><td>")
		if point.Value == nil {
			b.WriteString(shared.Placeholder)
		} else {
			b.WriteString(formatFloat(*point.Value))
		}
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table></section>")
}

func writeMetricRow(b *strings.Builder, label string, value float64) {
	b.WriteString("<tr><td class=\"metric-label\">")
	b.WriteString(templateEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(formatFloat(value))
	b.WriteString("</td></tr>")
}

func writeCurrencyRow(b *strings.Builder, label string, value float64) {
	b.WriteString("<tr><td class=\"metric-label\">")
	b.WriteString(templateEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(templateEscape(shared.FormatCurrency(&value)))
	b.WriteString("</td></tr>")
}

func templateEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
