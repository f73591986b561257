// Package points provides the ordered, append-only point store of a clustering session.
package points

import "github.com/hyperjump/mixpad/internal/models"

// Store holds points in arrival order. Index order is arrival order; points are
// never reordered or removed except by Reset.
type Store struct {
	points []models.Point
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds p at the end. Any coordinates are accepted.
func (s *Store) Append(p models.Point) {
	s.points = append(s.points, p)
}

// Reset empties the store.
func (s *Store) Reset() {
	s.points = nil
}

// Size returns the number of stored points.
func (s *Store) Size() int {
	return len(s.points)
}

// At returns the point at index i. It panics if i is out of range, like a slice index.
func (s *Store) At(i int) models.Point {
	return s.points[i]
}

// All returns a copy of every stored point.
func (s *Store) All() []models.Point {
	return s.Prefix(len(s.points))
}

// Prefix returns a copy of the first n points. n is clamped to [0, Size()].
func (s *Store) Prefix(n int) []models.Point {
	if n < 0 {
		n = 0
	}
	if n > len(s.points) {
		n = len(s.points)
	}
	out := make([]models.Point, n)
	copy(out, s.points[:n])
	return out
}
