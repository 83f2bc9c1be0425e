package svg

import (
	"strings"
	"testing"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
	"github.com/ramirolandajo/comercio-insights/internal/shared"
)

func series(label string, values ...*float64) dashboard.MetricSeries {
	points := make([]dashboard.Point, len(values))
	for i, v := range values {
		points[i] = dashboard.Point{Category: "2025-01-0" + string(rune('1'+i)), Value: v}
	}
	return dashboard.MetricSeries{Label: label, Points: points}
}

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, series("Facturación", shared.Float(100), shared.Float(200), shared.Float(150)), LineOpts{
		Title:       "Facturación",
		Description: "Facturación diaria del período",
		ShowDots:    true,
	})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<path") {
		t.Fatalf("expected path element in svg")
	}
	if !strings.Contains(output, "aria-labelledby") {
		t.Fatalf("expected accessibility attributes")
	}
}

func TestLineBreaksPathAtGaps(t *testing.T) {
	html, err := Line(400, 200, series("Stock", shared.Float(10), nil, shared.Float(20), shared.Float(30)), LineOpts{FillColor: "none"})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if got := strings.Count(output, `d="M`); got != 2 {
		t.Fatalf("expected two path segments around the gap, got %d move commands:\n%s", got, output)
	}
}

func TestLineRejectsAllNilSeries(t *testing.T) {
	if _, err := Line(400, 200, series("Vacía", nil, nil), LineOpts{}); err == nil {
		t.Fatal("expected error for series without values")
	}
}

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, series("Unidades vendidas", shared.Float(500), shared.Float(600)), BarOpts{
		Title:       "Productos más vendidos",
		Description: "Unidades vendidas por producto",
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<rect") {
		t.Fatalf("expected rect bars in svg")
	}
}

func TestBarsSkipNilValues(t *testing.T) {
	html, err := Bars(420, 220, series("Stock", shared.Float(4), nil, shared.Float(2)), BarOpts{})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if got := strings.Count(output, "<rect"); got != 2 {
		t.Fatalf("expected 2 bars, got %d", got)
	}
}

func TestMultiLineRendersOneLinePerSeries(t *testing.T) {
	timeline := dashboard.Timeline{
		Days: []string{"2025-01-01", "2025-01-02"},
		Series: []dashboard.MetricSeries{
			{Label: "Teclado", Points: []dashboard.Point{{Category: "2025-01-01", Value: shared.Float(3)}, {Category: "2025-01-02", Value: nil}}},
			{Label: "Mouse", Points: []dashboard.Point{{Category: "2025-01-01", Value: nil}, {Category: "2025-01-02", Value: shared.Float(9)}}},
		},
	}
	html, err := MultiLine(600, 240, timeline, MultiLineOpts{Title: "Eventos de stock"})
	if err != nil {
		t.Fatalf("multiline renderer error: %v", err)
	}
	output := string(html)
	if !strings.Contains(output, "Teclado") || !strings.Contains(output, "Mouse") {
		t.Fatalf("expected a legend entry per product:\n%s", output)
	}
	if got := strings.Count(output, "<path"); got != 2 {
		t.Fatalf("expected one path per series, got %d", got)
	}
}

func TestMultiLineRejectsRaggedSeries(t *testing.T) {
	timeline := dashboard.Timeline{
		Days: []string{"2025-01-01", "2025-01-02"},
		Series: []dashboard.MetricSeries{
			{Label: "Teclado", Points: []dashboard.Point{{Category: "2025-01-01", Value: shared.Float(3)}}},
		},
	}
	if _, err := MultiLine(600, 240, timeline, MultiLineOpts{}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
