// Package models defines core data structures for points, scenes, sessions, and fit records.
package models

import (
	"fmt"
	"math"
)

// Point is a 2-D coordinate added by user interaction. Points are values and never mutated.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointInput is the input for adding a point to a session.
type PointInput struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// Validate ensures both coordinates are present and finite.
func (in *PointInput) Validate() error {
	if in.X == nil || in.Y == nil {
		return fmt.Errorf("both x and y are required")
	}
	if !isFinite(*in.X) || !isFinite(*in.Y) {
		return fmt.Errorf("coordinates must be finite")
	}
	return nil
}

// Point returns the validated input as a Point. Call Validate first.
func (in *PointInput) Point() Point {
	return Point{X: *in.X, Y: *in.Y}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
