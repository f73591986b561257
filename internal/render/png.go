// Package render draws a scene as a PNG scatter plot.
package render

import (
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/hyperjump/mixpad/internal/models"
)

// PNGOptions configures PNG rendering.
type PNGOptions struct {
	Width   int
	Height  int
	DotSize float64
}

// DefaultPNGOptions returns the defaults used by the HTTP API.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Width: 600, Height: 600, DotSize: 5}
}

var labelColors = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorOrange,
	chart.ColorCyan,
	chart.ColorYellow,
}

// pointStyle renders dots only, with no connecting line.
func pointStyle(col drawing.Color, size float64) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    size,
		DotColor:    col,
	}
}

// LabelColor returns the dot color for a cluster label.
func LabelColor(label int) drawing.Color {
	i := label % len(labelColors)
	if i < 0 {
		i += len(labelColors)
	}
	return labelColors[i]
}

// PNG writes s to w. One series is drawn per label, plus one for pending points and
// one for plain points. Axes are fixed to the scene viewport and marks outside it are dropped.
func PNG(w io.Writer, s *models.Scene, opts PNGOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultPNGOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.DotSize <= 0 {
		opts.DotSize = DefaultPNGOptions().DotSize
	}
	vp := s.Viewport

	// The frame series keeps the chart valid when there are no visible marks.
	series := []chart.Series{chart.ContinuousSeries{
		XValues: []float64{vp.XMin, vp.XMax},
		YValues: []float64{vp.YMin, vp.YMax},
		Style:   pointStyle(drawing.ColorTransparent, 0.1),
	}}

	byLabel := make(map[int]*chart.ContinuousSeries)
	var order []int
	var pending, plain chart.ContinuousSeries
	for _, m := range s.Marks {
		if !vp.Contains(m.Point) {
			continue
		}
		switch {
		case m.Pending:
			pending.XValues = append(pending.XValues, m.Point.X)
			pending.YValues = append(pending.YValues, m.Point.Y)
		case m.Label != nil:
			cs, ok := byLabel[*m.Label]
			if !ok {
				cs = &chart.ContinuousSeries{
					Name:  fmt.Sprintf("cluster %d", *m.Label),
					Style: pointStyle(LabelColor(*m.Label), opts.DotSize),
				}
				byLabel[*m.Label] = cs
				order = append(order, *m.Label)
			}
			cs.XValues = append(cs.XValues, m.Point.X)
			cs.YValues = append(cs.YValues, m.Point.Y)
		default:
			plain.XValues = append(plain.XValues, m.Point.X)
			plain.YValues = append(plain.YValues, m.Point.Y)
		}
	}
	for _, l := range order {
		series = append(series, *byLabel[l])
	}
	if len(plain.XValues) > 0 {
		plain.Name = "points"
		plain.Style = pointStyle(chart.ColorAlternateGray, opts.DotSize)
		series = append(series, plain)
	}
	if len(pending.XValues) > 0 {
		pending.Name = "pending"
		pending.Style = pointStyle(chart.ColorBlack, opts.DotSize)
		series = append(series, pending)
	}

	ch := chart.Chart{
		Title:      s.Advisory,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Range: &chart.ContinuousRange{Min: vp.XMin, Max: vp.XMax}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: vp.YMin, Max: vp.YMax}},
		Series:     series,
	}
	if len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render scene: %w", err)
	}
	return nil
}
