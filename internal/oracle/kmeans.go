// Package oracle provides concrete clustering oracles: a local k-means fitter,
// an HTTP client for an external fitting service, and a scripted mock for tests.
package oracle

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
)

const (
	defaultClusters      = 3
	defaultMaxIterations = 100
	defaultTolerance     = 1e-6
)

// KMeans is a deterministic k-means oracle. Centroids are seeded by farthest-point
// selection starting from the first point, so identical input gives identical labels.
type KMeans struct {
	clusters      int
	maxIterations int
	tolerance     float64
}

// NewKMeans returns a k-means oracle fitting up to clusters groups.
// Non-positive arguments fall back to defaults.
func NewKMeans(clusters, maxIterations int, tolerance float64) *KMeans {
	if clusters <= 0 {
		clusters = defaultClusters
	}
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return &KMeans{clusters: clusters, maxIterations: maxIterations, tolerance: tolerance}
}

// Fit assigns each point to one of min(clusters, distinct points) groups. Labels
// are 1-based and numbered by first appearance.
func (km *KMeans) Fit(ctx context.Context, pts []models.Point) ([]int, error) {
	if len(pts) < clustering.MinFitPoints {
		return nil, clustering.ErrInsufficientPoints
	}
	vecs := make([][]float64, len(pts))
	for i, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, fmt.Errorf("%w: non-finite coordinate at index %d", clustering.ErrFitFailure, i)
		}
		vecs[i] = []float64{p.X, p.Y}
	}
	distinct := countDistinct(pts)
	if distinct < 2 {
		return nil, fmt.Errorf("%w: degenerate configuration (all points identical)", clustering.ErrFitFailure)
	}
	k := km.clusters
	if distinct < k {
		k = distinct
	}

	centroids := seedCentroids(vecs, k)
	assign := make([]int, len(vecs))
	for iter := 0; iter < km.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", clustering.ErrFitFailure, err)
		}
		for i, v := range vecs {
			assign[i] = nearest(v, centroids)
		}
		shift := 0.0
		for c := range centroids {
			next, ok := centroidOf(vecs, assign, c)
			if !ok {
				continue
			}
			if d := floats.Distance(centroids[c], next, 2); d > shift {
				shift = d
			}
			centroids[c] = next
		}
		if shift <= km.tolerance {
			return relabel(assign), nil
		}
	}
	return nil, fmt.Errorf("%w: did not converge in %d iterations", clustering.ErrFitFailure, km.maxIterations)
}

// seedCentroids picks the first vector, then repeatedly the vector farthest from
// every chosen centroid. Ties go to the lowest index.
func seedCentroids(vecs [][]float64, k int) [][]float64 {
	centroids := [][]float64{append([]float64(nil), vecs[0]...)}
	minDist := make([]float64, len(vecs))
	for i, v := range vecs {
		minDist[i] = floats.Distance(v, centroids[0], 2)
	}
	for len(centroids) < k {
		best := floats.MaxIdx(minDist)
		c := append([]float64(nil), vecs[best]...)
		centroids = append(centroids, c)
		for i, v := range vecs {
			if d := floats.Distance(v, c, 2); d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	return centroids
}

func nearest(v []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(v, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// centroidOf returns the mean of the vectors assigned to cluster c, or false if it is empty.
func centroidOf(vecs [][]float64, assign []int, c int) ([]float64, bool) {
	var xs, ys []float64
	for i, a := range assign {
		if a == c {
			xs = append(xs, vecs[i][0])
			ys = append(ys, vecs[i][1])
		}
	}
	if len(xs) == 0 {
		return nil, false
	}
	return []float64{stat.Mean(xs, nil), stat.Mean(ys, nil)}, true
}

// relabel maps raw cluster indexes to 1-based labels in order of first appearance.
func relabel(assign []int) []int {
	mapping := make(map[int]int)
	labels := make([]int, len(assign))
	for i, a := range assign {
		l, ok := mapping[a]
		if !ok {
			l = len(mapping) + 1
			mapping[a] = l
		}
		labels[i] = l
	}
	return labels
}

func countDistinct(pts []models.Point) int {
	seen := make(map[models.Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}
