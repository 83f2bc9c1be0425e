// Package svg renders the dashboard charts as standalone SVG documents.
package svg

// LineOpts customises the single-series line chart.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	BarColor    string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// MultiLineOpts customises the multi-series timeline chart.
type MultiLineOpts struct {
	Title       string
	Description string
	Palette     []string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 6
)

// DefaultPalette cycles across timeline series, matching the dashboard's
// original chart colors.
var DefaultPalette = []string{"#ef4444", "#3b82f6", "#10b981", "#f59e0b", "#6366f1"}
