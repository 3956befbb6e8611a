package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

const (
	plotHeight = 12
	plotWidth  = 72
)

// PlotCurve draws mean energy per site against the temperature schedule. The
// x axis is the schedule index, stretched to the plot width; the caption
// names the temperature range.
func PlotCurve(temperatures, energies []float64) string {
	if len(energies) == 0 {
		return ""
	}
	caption := fmt.Sprintf("energy per site, T = %.3f", temperatures[0])
	if n := len(temperatures); n > 1 {
		caption = fmt.Sprintf("energy per site vs T in [%.3f, %.3f], %d points", temperatures[0], temperatures[n-1], n)
	}

	width := plotWidth
	if len(energies) > width {
		width = len(energies)
	}

	return asciigraph.Plot(energies,
		asciigraph.Height(plotHeight),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.UpperBound(0),
		asciigraph.LowerBound(-2),
		asciigraph.Caption(caption),
	)
}
