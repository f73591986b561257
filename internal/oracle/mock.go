package oracle

import (
	"context"
	"sync"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
)

// Mock is a deterministic oracle for tests. Scripted outcomes are consumed one
// per call; once the script is exhausted, Fail decides the outcome.
type Mock struct {
	mu      sync.Mutex
	script  []bool
	fail    bool
	labeler func([]models.Point) []int
	calls   [][]models.Point
}

// NewMock returns a mock that always succeeds, labelling every point 1.
func NewMock() *Mock {
	return &Mock{labeler: SingleCluster}
}

// WithLabeler replaces the labelling function used on success.
func (m *Mock) WithLabeler(fn func([]models.Point) []int) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labeler = fn
	return m
}

// SetFail sets the outcome used once the script is exhausted.
func (m *Mock) SetFail(fail bool) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
	return m
}

// Script queues outcomes for the next calls; true means the call fails.
func (m *Mock) Script(failures ...bool) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, failures...)
	return m
}

// Fit records the call and returns the next scripted outcome.
func (m *Mock) Fit(_ context.Context, pts []models.Point) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]models.Point(nil), pts...))
	if len(pts) < clustering.MinFitPoints {
		return nil, clustering.ErrInsufficientPoints
	}
	fail := m.fail
	if len(m.script) > 0 {
		fail, m.script = m.script[0], m.script[1:]
	}
	if fail {
		return nil, clustering.ErrFitFailure
	}
	return m.labeler(pts), nil
}

// Calls returns how many times Fit was called.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastInput returns the points passed to the most recent call.
func (m *Mock) LastInput() []models.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// SingleCluster labels every point 1.
func SingleCluster(pts []models.Point) []int {
	labels := make([]int, len(pts))
	for i := range labels {
		labels[i] = 1
	}
	return labels
}

// SplitAtX labels points with x < x0 as 1 and the rest as 2.
func SplitAtX(x0 float64) func([]models.Point) []int {
	return func(pts []models.Point) []int {
		labels := make([]int, len(pts))
		for i, p := range pts {
			labels[i] = 1
			if p.X >= x0 {
				labels[i] = 2
			}
		}
		return labels
	}
}
