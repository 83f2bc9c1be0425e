package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
)

// Bars renders a vertical bar chart for a single series. Nil points draw no
// bar, leaving an empty slot under the category label.
func Bars(width, height int, series dashboard.MetricSeries, opts BarOpts) (template.HTML, error) {
	if len(series.Points) == 0 {
		return "", fmt.Errorf("svg: series required")
	}

	barColor := fallback(opts.BarColor, "#0ea5e9")
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	minVal, maxVal, known := seriesBounds(series)
	if known == 0 {
		return "", fmt.Errorf("svg: series has no values")
	}
	g, err := resolveGeometry(width, height, opts.Padding, minVal, maxVal)
	if err != nil {
		return "", err
	}

	zeroY := g.y(0)
	groupWidth := g.chartWidth / float64(len(series.Points))
	barWidth := groupWidth * 0.6
	chartBottom := g.padding + g.chartHeight

	var b strings.Builder
	g.openSVG(&b, fallback(opts.Title, series.Label), opts.Description, "bar")
	g.writeGrid(&b, opts.TickCount, gridColor, axisColor)

	fmt.Fprintf(&b, "<g stroke=\"%s\" aria-label=\"Ejes\">", axisColor)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", g.padding, g.padding, g.padding, chartBottom)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", g.padding, zeroY, g.padding+g.chartWidth, zeroY)
	b.WriteString("</g>")

	for i, p := range series.Points {
		baseX := g.padding + float64(i)*groupWidth
		center := baseX + groupWidth/2
		if p.Value != nil {
			y, h := barPosition(*p.Value, g.scale, zeroY, g.padding, chartBottom)
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s\"></rect>", center-barWidth/2, y, barWidth, h, barColor, template.HTMLEscapeString(series.Label), template.HTMLEscapeString(p.Category))
		}
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center, chartBottom+14, axisColor, template.HTMLEscapeString(p.Category))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, padding, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < padding {
			height -= padding - y
			y = padding
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := math.Abs(value * scale)
	y := zeroY
	if y+height > bottom {
		height = bottom - y
	}
	if height < 0 {
		height = 0
	}
	return y, height
}
