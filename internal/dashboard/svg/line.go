package svg

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
)

// Line renders a single-series line chart. Points with a nil value break the
// stroke: the path restarts at the next known point instead of dropping to
// zero, so missing days read as gaps.
func Line(width, height int, series dashboard.MetricSeries, opts LineOpts) (template.HTML, error) {
	if len(series.Points) == 0 {
		return "", fmt.Errorf("svg: series required")
	}

	strokeColor := fallback(opts.StrokeColor, "#2563eb")
	fillColor := fallback(opts.FillColor, "rgba(37,99,235,0.12)")
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

	count := len(series.Points)
	segments := segmentPaths(series.Points, count, g)

	var b strings.Builder
	g.openSVG(&b, fallback(opts.Title, series.Label), opts.Description, "line")
	g.writeGrid(&b, opts.TickCount, gridColor, axisColor)
	g.writeAxes(&b, axisColor)

	if fillColor != "" && fillColor != "none" {
		base := g.padding + g.chartHeight
		for _, seg := range segments {
			area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", seg.path, seg.lastX, base, seg.firstX, base)
			fmt.Fprintf(&b, "<path d=\"%s\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>", area, fillColor)
		}
	}
	for _, seg := range segments {
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", seg.path, strokeColor)
	}

	if opts.ShowDots {
		for i, p := range series.Points {
			if p.Value == nil {
				continue
			}
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", g.x(i, count), g.y(*p.Value), strokeColor)
		}
	}

	g.writeXLabels(&b, pointLabels(series.Points), axisColor)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

type pathSegment struct {
	path          string
	firstX, lastX float64
}

// segmentPaths splits a gappy series into contiguous path runs. A run of one
// point still produces a path so the stroke-linecap renders a visible dot.
func segmentPaths(points []dashboard.Point, count int, g geometry) []pathSegment {
	var segments []pathSegment
	var current strings.Builder
	firstX, lastX := 0.0, 0.0
	open := false
	flush := func() {
		if open {
			segments = append(segments, pathSegment{path: current.String(), firstX: firstX, lastX: lastX})
			current.Reset()
			open = false
		}
	}
	for i, p := range points {
		if p.Value == nil {
			flush()
			continue
		}
		x := g.x(i, count)
		y := g.y(*p.Value)
		if !open {
			firstX = x
			fmt.Fprintf(&current, "M%.2f %.2f", x, y)
			open = true
		} else {
			fmt.Fprintf(&current, " L%.2f %.2f", x, y)
		}
		lastX = x
	}
	flush()
	return segments
}

func pointLabels(points []dashboard.Point) []string {
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Category
	}
	return labels
}

func seriesBounds(series dashboard.MetricSeries) (minVal, maxVal float64, known int) {
	for _, p := range series.Points {
		if p.Value == nil {
			continue
		}
		v := *p.Value
		if known == 0 || v < minVal {
			minVal = v
		}
		if known == 0 || v > maxVal {
			maxVal = v
		}
		known++
	}
	return minVal, maxVal, known
}
