// Package export serialises shaped dashboard data for download: delimited
// text for spreadsheets and Gotenberg-rendered PDF reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

// WriteChartCSV emits a chart's shaped data as delimited text: a header row
// with `label` plus one column per series, then one row per category. The
// label cell is always quoted (embedded quotes doubled) while numeric cells
// stay bare, and nil values become empty cells. encoding/csv quotes only when
// forced to, so this writer is hand-rolled to keep the exact shape spreadsheet
// users of the dashboard already import.
func WriteChartCSV(w io.Writer, labels []string, series []dashboard.MetricSeries) error {
	for _, s := range series {
		if len(s.Points) != len(labels) {
			return fmt.Errorf("export: series %q has %d points for %d labels", s.Label, len(s.Points), len(labels))
		}
	}

	header := make([]string, 0, len(series)+1)
	header = append(header, "label")
	for _, s := range series {
		header = append(header, s.Label)
	}
	if _, err := io.WriteString(w, strings.Join(header, ",")+"\n"); err != nil {
		return err
	}

	for i, label := range labels {
		cells := make([]string, 0, len(series)+1)
		cells = append(cells, quoteLabel(label))
		for _, s := range series {
			v := s.Points[i].Value
			if v == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, formatFloat(*v))
		}
		if _, err := io.WriteString(w, strings.Join(cells, ",")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteTimelineCSV is WriteChartCSV over an assembled event timeline.
func WriteTimelineCSV(w io.Writer, timeline dashboard.Timeline) error {
	return WriteChartCSV(w, timeline.Days, timeline.Series)
}

// WriteSummaryCSV serialises the KPI summary as metric/value rows.
func WriteSummaryCSV(w io.Writer, summary upstream.SalesSummary, period string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", period},
		{"Total Revenue", formatFloat(summary.FacturacionTotal)},
		{"Revenue (thousands)", formatFloat(summary.FacturacionTotalEnMiles)},
		{"Sales Count", formatFloat(summary.TotalVentas)},
		{"Units Sold", formatFloat(summary.ProductosVendidos)},
		{"Active Customers", formatFloat(summary.ClientesActivos)},
		{"Current Revenue", formatFloat(summary.CurrentRevenue)},
		{"Previous Revenue", formatFloat(summary.PreviousRevenue)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteLowStockCSV serialises the low-stock listing.
func WriteLowStockCSV(w io.Writer, items []upstream.StockItem) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Product Code", "Title", "Stock"}); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write([]string{item.ProductCode, item.Title, formatFloat(item.Stock)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func quoteLabel(label string) string {
	return `"` + strings.ReplaceAll(label, `"`, `""`) + `"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
