// Package clustering implements the incremental clustering state machine: the
// coordinator that decides when to fit, the snapshot of the last successful fit,
// and the display-only preview path.
package clustering

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/mixpad/internal/models"
)

// MinFitPoints is the smallest number of points an oracle may be asked to fit.
const MinFitPoints = 2

var (
	// ErrFitFailure means the oracle could not produce labels for the given points.
	ErrFitFailure = errors.New("clustering: fit failed")
	// ErrInsufficientPoints is returned by oracles asked to fit fewer than MinFitPoints points.
	// The coordinator never calls an oracle in that case.
	ErrInsufficientPoints = errors.New("clustering: at least 2 points are required")
)

// Oracle fits a mixture model to an ordered list of points and returns one
// cluster label per point, in the same order.
type Oracle interface {
	Fit(ctx context.Context, pts []models.Point) ([]int, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, pts []models.Point) ([]int, error)

// Fit calls f.
func (f OracleFunc) Fit(ctx context.Context, pts []models.Point) ([]int, error) {
	return f(ctx, pts)
}

// fit invokes the oracle once and normalizes every failure to ErrFitFailure.
func fit(ctx context.Context, oracle Oracle, pts []models.Point) ([]int, error) {
	labels, err := oracle.Fit(ctx, pts)
	if err != nil {
		if errors.Is(err, ErrFitFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrFitFailure, err)
	}
	if len(labels) != len(pts) {
		return nil, fmt.Errorf("%w: oracle returned %d labels for %d points", ErrFitFailure, len(labels), len(pts))
	}
	return labels, nil
}

// countClusters returns the number of distinct labels.
func countClusters(labels []int) int {
	seen := make(map[int]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}
