// Package scene derives the renderable scene from a session's points and snapshot.
package scene

import (
	"context"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
)

// Advisory texts shown alongside the plot.
const (
	TextEmpty           = "click to add points; auto-clusters at 2+"
	TextAddOneMore      = "add one more point"
	TextUnableToCluster = "unable to cluster; add or move points"
	TextPending         = "new points are not clustered yet; press Go to re-cluster"
)

// Input is a read-only view of the state a scene is built from.
type Input struct {
	Points   []models.Point
	Snapshot *clustering.Snapshot
}

// InputFrom copies the current points and snapshot out of c.
func InputFrom(c *clustering.Coordinator) Input {
	return Input{Points: c.Points(), Snapshot: c.Snapshot()}
}

// Previewer runs a display-only fit. *clustering.Previewer satisfies it.
type Previewer interface {
	Preview(ctx context.Context, pts []models.Point) ([]int, bool)
}

// Builder turns an Input into a Scene over a fixed square viewport.
type Builder struct {
	viewport models.Viewport
}

// NewBuilder returns a builder that always reports viewport.
func NewBuilder(viewport models.Viewport) *Builder {
	return &Builder{viewport: viewport}
}

// Build returns the scene for in. It never mutates in; the only fit it may run
// is a preview through p when no snapshot exists yet, and that result is used
// for this scene only.
func (b *Builder) Build(ctx context.Context, in Input, p Previewer) *models.Scene {
	s := &models.Scene{Marks: make([]models.Mark, 0, len(in.Points)), Viewport: b.viewport}
	switch {
	case len(in.Points) == 0:
		s.Advisory = TextEmpty
	case len(in.Points) < clustering.MinFitPoints:
		s.Marks = append(s.Marks, plainMarks(in.Points)...)
		s.Advisory = TextAddOneMore
	case in.Snapshot == nil:
		labels, ok := p.Preview(ctx, in.Points)
		if !ok {
			s.Marks = append(s.Marks, plainMarks(in.Points)...)
			s.Advisory = TextUnableToCluster
			break
		}
		s.Marks = append(s.Marks, labelledMarks(in.Points, labels)...)
	default:
		covered := in.Snapshot.CoveredCount()
		if covered > len(in.Points) {
			covered = len(in.Points)
		}
		s.Marks = append(s.Marks, labelledMarks(in.Points[:covered], in.Snapshot.Labels())...)
		for _, pt := range in.Points[covered:] {
			s.Marks = append(s.Marks, models.Mark{Point: pt, Pending: true})
		}
		if covered < len(in.Points) {
			s.Advisory = TextPending
		}
	}
	return s
}

func plainMarks(pts []models.Point) []models.Mark {
	marks := make([]models.Mark, len(pts))
	for i, pt := range pts {
		marks[i] = models.Mark{Point: pt}
	}
	return marks
}

func labelledMarks(pts []models.Point, labels []int) []models.Mark {
	marks := make([]models.Mark, len(pts))
	for i, pt := range pts {
		l := labels[i]
		marks[i] = models.Mark{Point: pt, Label: &l}
	}
	return marks
}
