package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNoPoints = errors.New("export: no points to draw")

// CurveToPNG renders energy per site against temperature as a PNG. When any
// point carries a standard error the band E ± stderr is drawn dashed around
// the curve.
func CurveToPNG(w io.Writer, points []CurvePoint, width, height int) error {
	if len(points) == 0 {
		return ErrNoPoints
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	lower := make([]float64, len(points))
	upper := make([]float64, len(points))
	withErr := false
	for i, p := range points {
		xs[i] = p.Temperature
		ys[i] = p.Energy
		lower[i] = p.Energy - p.StdErr
		upper[i] = p.Energy + p.StdErr
		if p.StdErr > 0 {
			withErr = true
		}
	}

	lo, hi := temperatureRange(points)
	xRange := &chart.ContinuousRange{Min: lo, Max: hi}

	stroke := drawing.ColorFromHex("0088cc")
	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "energy per site",
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: stroke,
				StrokeWidth: 2,
				DotColor:    stroke,
				DotWidth:    3,
			},
		},
	}
	if withErr {
		band := chart.Style{StrokeColor: stroke.WithAlpha(128), StrokeWidth: 1, StrokeDashArray: []float64{4, 3}}
		series = append(series,
			chart.ContinuousSeries{XValues: xs, YValues: lower, Style: band},
			chart.ContinuousSeries{XValues: xs, YValues: upper, Style: band},
		)
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:  "T",
			Style: chart.Style{FontSize: 10},
			Range: xRange,
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2f", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name:  "E / N",
			Style: chart.Style{FontSize: 10},
			Range: &chart.ContinuousRange{Min: -2, Max: 0},
		},
		Series: series,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("export: render png: %w", err)
	}
	return nil
}
