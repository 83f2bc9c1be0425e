package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// geometry holds the resolved drawing area shared by all renderers.
type geometry struct {
	width, height         int
	padding               float64
	chartWidth            float64
	chartHeight           float64
	minVal, maxVal, scale float64
}

func resolveGeometry(width, height int, padding, minVal, maxVal float64) (geometry, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if padding <= 0 {
		padding = DefaultPadding
	}
	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return geometry{}, fmt.Errorf("svg: viewport too small")
	}
	if minVal > 0 {
		minVal = 0
	}
	if maxVal < 0 {
		maxVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	return geometry{
		width:       width,
		height:      height,
		padding:     padding,
		chartWidth:  chartWidth,
		chartHeight: chartHeight,
		minVal:      minVal,
		maxVal:      maxVal,
		scale:       chartHeight / (maxVal - minVal),
	}, nil
}

func (g geometry) x(index, count int) float64 {
	if count <= 1 {
		return g.padding + g.chartWidth/2
	}
	return g.padding + float64(index)*(g.chartWidth/float64(count-1))
}

func (g geometry) y(value float64) float64 {
	return g.padding + g.chartHeight - (value-g.minVal)*g.scale
}

func (g geometry) openSVG(b *strings.Builder, title, desc, kind string) {
	titleID := makeID(title, kind+"-title")
	descID := makeID(title, kind+"-desc")
	fmt.Fprintf(b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", g.width, g.height, titleID, descID)
	fmt.Fprintf(b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(title, "Gráfico")))
	fmt.Fprintf(b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(desc, "Serie de datos")))
}

func (g geometry) writeGrid(b *strings.Builder, tickCount int, gridColor, axisColor string) {
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := g.padding + g.chartHeight - ratio*g.chartHeight
		value := g.minVal + (g.maxVal-g.minVal)*ratio
		fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", g.padding, y, g.padding+g.chartWidth, y, gridColor)
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", g.padding-6, y+4, axisColor, template.HTMLEscapeString(formatTick(value)))
	}
}

func (g geometry) writeAxes(b *strings.Builder, axisColor string) {
	fmt.Fprintf(b, "<g stroke=\"%s\" aria-label=\"Ejes\">", axisColor)
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", g.padding, g.padding, g.padding, g.padding+g.chartHeight)
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", g.padding, g.padding+g.chartHeight, g.padding+g.chartWidth, g.padding+g.chartHeight)
	b.WriteString("</g>")
}

func (g geometry) writeXLabels(b *strings.Builder, labels []string, axisColor string) {
	for i, label := range labels {
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", g.x(i, len(labels)), g.padding+g.chartHeight+14, axisColor, template.HTMLEscapeString(label))
	}
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	}
}
