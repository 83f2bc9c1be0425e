package dashboard

import (
	"reflect"
	"testing"

	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

func TestProjectionsPreserveInputOrder(t *testing.T) {
	rows := []upstream.RankedProduct{
		{Title: "Yerba", UnidadesVendidas: 30},
		{Title: "Mate", UnidadesVendidas: 50},
	}
	series := TopProductsSeries(rows)
	if series.Points[0].Category != "Yerba" || series.Points[1].Category != "Mate" {
		t.Fatalf("projection must not reorder rows: %+v", series.Points)
	}
	if *series.Points[1].Value != 50 {
		t.Fatalf("unexpected value %v", *series.Points[1].Value)
	}
}

func TestHistogramSeriesSortsBuckets(t *testing.T) {
	series := HistogramSeries(map[string]float64{"10-20": 3, "0-10": 7, "20-30": 1})
	got := make([]string, 0, len(series.Points))
	for _, p := range series.Points {
		got = append(got, p.Category)
	}
	want := []string{"0-10", "10-20", "20-30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected bucket order %v", got)
	}
}

func TestRegressionSeriesSamplesTenPoints(t *testing.T) {
	series := RegressionSeries(upstream.Regression{A: 2, B: 1})
	if len(series.Points) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(series.Points))
	}
	if *series.Points[0].Value != 1 {
		t.Fatalf("expected y(0)=1, got %v", *series.Points[0].Value)
	}
	if *series.Points[9].Value != 19 {
		t.Fatalf("expected y(9)=19, got %v", *series.Points[9].Value)
	}
}

func TestShapingIsIdempotent(t *testing.T) {
	rows := []upstream.TrendPoint{{Date: "2024-01-01", Total: 10}, {Date: "2024-01-02", Total: 12}}
	first := TrendSeries(rows)
	second := TrendSeries(rows)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected equal output for equal input")
	}
	// Mutating the first result must not leak into a fresh projection.
	*first.Points[0].Value = 99
	third := TrendSeries(rows)
	if *third.Points[0].Value != 10 {
		t.Fatal("shaping accumulated hidden state")
	}
}

func TestEmptyInputsYieldEmptySeries(t *testing.T) {
	if pts := DailySalesSeries(nil).Points; len(pts) != 0 {
		t.Fatalf("expected no points, got %d", len(pts))
	}
	if pts := LowStockSeries(nil).Points; len(pts) != 0 {
		t.Fatalf("expected no points, got %d", len(pts))
	}
	if pts := CategoryGrowthSeries(nil).Points; len(pts) != 0 {
		t.Fatalf("expected no points, got %d", len(pts))
	}
}
