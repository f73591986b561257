package models

// Viewport is the fixed plot rectangle. Points outside it are simply not visible.
type Viewport struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// SquareViewport returns a viewport spanning [min, max] on both axes.
func SquareViewport(min, max float64) Viewport {
	return Viewport{XMin: min, XMax: max, YMin: min, YMax: max}
}

// Contains reports whether p lies inside the viewport (inclusive).
func (v Viewport) Contains(p Point) bool {
	return p.X >= v.XMin && p.X <= v.XMax && p.Y >= v.YMin && p.Y <= v.YMax
}

// Mark is one point in a scene. A mark has a Label, is Pending, or is plain (neither).
type Mark struct {
	Point   Point `json:"point"`
	Label   *int  `json:"label,omitempty"`
	Pending bool  `json:"pending,omitempty"`
}

// Scene is the renderable description handed to an external renderer.
type Scene struct {
	Marks    []Mark   `json:"marks"`
	Advisory string   `json:"advisory,omitempty"`
	Viewport Viewport `json:"viewport"`
}

// PendingCount returns the number of pending marks.
func (s *Scene) PendingCount() int {
	n := 0
	for _, m := range s.Marks {
		if m.Pending {
			n++
		}
	}
	return n
}

// Labels returns the distinct labels in the scene in order of first appearance.
func (s *Scene) Labels() []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range s.Marks {
		if m.Label == nil || seen[*m.Label] {
			continue
		}
		seen[*m.Label] = true
		out = append(out, *m.Label)
	}
	return out
}
