package svg

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
)

// MultiLine renders the event timeline: one colored line per product series
// over a shared day axis. Every series must have one point per day; nil
// values break the line the same way Line does.
func MultiLine(width, height int, timeline dashboard.Timeline, opts MultiLineOpts) (template.HTML, error) {
	if len(timeline.Days) == 0 {
		return "", fmt.Errorf("svg: days required")
	}
	if len(timeline.Series) == 0 {
		return "", fmt.Errorf("svg: at least one series required")
	}
	for _, s := range timeline.Series {
		if len(s.Points) != len(timeline.Days) {
			return "", fmt.Errorf("svg: series %q length must match days", s.Label)
		}
	}

	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	minVal, maxVal, known := timelineBounds(timeline)
	if known == 0 {
		return "", fmt.Errorf("svg: timeline has no values")
	}
	g, err := resolveGeometry(width, height, opts.Padding, minVal, maxVal)
	if err != nil {
		return "", err
	}

	count := len(timeline.Days)

	var b strings.Builder
	g.openSVG(&b, fallback(opts.Title, "Línea de tiempo"), opts.Description, "timeline")
	g.writeGrid(&b, opts.TickCount, gridColor, axisColor)
	g.writeAxes(&b, axisColor)

	for si, s := range timeline.Series {
		color := palette[si%len(palette)]
		for _, seg := range segmentPaths(s.Points, count, g) {
			fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\" aria-label=\"%s\"></path>", seg.path, color, template.HTMLEscapeString(s.Label))
		}
		if opts.ShowDots {
			for i, p := range s.Points {
				if p.Value == nil {
					continue
				}
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", g.x(i, count), g.y(*p.Value), color)
			}
		}
	}

	// Legend
	legendY := g.padding - 12
	if legendY < 12 {
		legendY = 12
	}
	legendX := g.padding
	for si, s := range timeline.Series {
		color := palette[si%len(palette)]
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-8, color)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", legendX+14, legendY, axisColor, template.HTMLEscapeString(s.Label))
		legendX += 14 + 7*float64(len(s.Label)) + 16
	}

	g.writeXLabels(&b, timeline.Days, axisColor)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func timelineBounds(timeline dashboard.Timeline) (minVal, maxVal float64, known int) {
	for _, s := range timeline.Series {
		sMin, sMax, n := seriesBounds(s)
		if n == 0 {
			continue
		}
		if known == 0 || sMin < minVal {
			minVal = sMin
		}
		if known == 0 || sMax > maxVal {
			maxVal = sMax
		}
		known += n
	}
	return minVal, maxVal, known
}
