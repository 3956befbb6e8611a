package export

import (
	"fmt"
	"strings"
)

// CurvePoint is one temperature of an energy curve. StdErr is drawn as an
// error bar when positive.
type CurvePoint struct {
	Temperature float64
	Energy      float64
	StdErr      float64
}

const (
	padLeft   = 56.0
	padRight  = 16.0
	padTop    = 16.0
	padBottom = 40.0
)

// temperatureRange returns the smallest and largest temperature, widened to a
// unit interval around a single value. Schedules need not be ascending.
func temperatureRange(points []CurvePoint) (lo, hi float64) {
	lo, hi = points[0].Temperature, points[0].Temperature
	for _, p := range points {
		lo = min(lo, p.Temperature)
		hi = max(hi, p.Temperature)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	return lo, hi
}

// CurveToSVG draws energy per site against temperature. The energy axis
// always covers [-2, 0], the physical range of the model.
func CurveToSVG(points []CurvePoint, width, height int, strokeColor string) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := temperatureRange(points)
	rangeX := maxX - minX
	const minY, maxY = -2.0, 0.0

	plotW := float64(width) - padLeft - padRight
	plotH := float64(height) - padTop - padBottom
	px := func(t float64) float64 { return padLeft + (t-minX)/rangeX*plotW }
	py := func(e float64) float64 {
		if e < minY {
			e = minY
		}
		if e > maxY {
			e = maxY
		}
		return padTop + (maxY-e)/(maxY-minY)*plotH
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	// Axes and energy ticks
	sb.WriteString(fmt.Sprintf(`<g stroke="#444444" stroke-width="1">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
`, padLeft, padTop, padLeft, padTop+plotH, padLeft, padTop+plotH, padLeft+plotW, padTop+plotH))

	sb.WriteString(`<g fill="#888888" font-family="monospace" font-size="11">` + "\n")
	for _, e := range []float64{-2, -1.5, -1, -0.5, 0} {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="end">%.1f</text>
`, padLeft-6, py(e)+4, e))
	}
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%.3f</text>
<text x="%.1f" y="%.1f" text-anchor="middle">%.3f</text>
<text x="%.1f" y="%.1f" text-anchor="middle">T</text>
</g>
`, px(points[0].Temperature), padTop+plotH+16, points[0].Temperature,
		px(points[len(points)-1].Temperature), padTop+plotH+16, points[len(points)-1].Temperature,
		padLeft+plotW/2, float64(height)-6))

	// Error bars
	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-width="1" opacity="0.6">`+"\n", strokeColor))
	for _, p := range points {
		if p.StdErr <= 0 {
			continue
		}
		x := px(p.Temperature)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x, py(p.Energy-p.StdErr), x, py(p.Energy+p.StdErr)))
	}
	sb.WriteString("</g>\n")

	if len(points) > 1 {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))
		for i, p := range points {
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(p.Temperature), py(p.Energy)))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(p.Temperature), py(p.Energy)))
			}
		}
		sb.WriteString(`"/>` + "\n")
	}

	sb.WriteString(fmt.Sprintf(`<g fill="%s">`+"\n", strokeColor))
	for _, p := range points {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2.5"/>
`, px(p.Temperature), py(p.Energy)))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
