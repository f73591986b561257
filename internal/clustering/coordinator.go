package clustering

import (
	"context"
	"time"

	"github.com/hyperjump/mixpad/internal/models"
	"github.com/hyperjump/mixpad/internal/points"
	"go.uber.org/zap"
)

// ManualFitWarning is the user-visible message for a failed manual re-fit.
const ManualFitWarning = "clustering failed: leaving previous clustering in place"

// FitRecorder receives every state-changing fit attempt. Previews are never recorded.
// Implementations handle their own errors; recording never affects coordinator state.
type FitRecorder interface {
	RecordFit(ctx context.Context, rec *models.FitRecord)
}

// Outcome describes the result of a manual re-fit request.
type Outcome struct {
	// Attempted is false when there were too few points to fit.
	Attempted bool
	// Fitted is true when a new snapshot replaced the previous one.
	Fitted bool
	// Warning is ManualFitWarning when the oracle failed, otherwise empty.
	Warning string
}

// Coordinator owns one session's points, snapshot, and auto-fit gate. It is not
// safe for concurrent use; callers serialize actions (see session.Manager).
type Coordinator struct {
	store    *points.Store
	snapshot *Snapshot
	// autoFitArmed permits the single automatic fit attempt made when the
	// session first reaches MinFitPoints points. Reset re-arms it, as does a
	// failed attempt whose ctx was already done.
	autoFitArmed bool

	oracle    Oracle
	previewer *Previewer
	recorder  FitRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the fit recorder.
func WithRecorder(r FitRecorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithPreviewCache enables caching of display-only preview fits.
func WithPreviewCache(cache *PreviewCache) Option {
	return func(c *Coordinator) { c.previewer.cache = cache }
}

// NewCoordinator creates a coordinator in the EMPTY state.
func NewCoordinator(oracle Oracle, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:        points.NewStore(),
		autoFitArmed: true,
		oracle:       oracle,
		previewer:    NewPreviewer(oracle, nil, nil),
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.previewer.logger = c.logger
	return c
}

// AddPoint appends p and re-evaluates the auto-fit gate. The first time the
// session holds MinFitPoints points the oracle is called once; failure is silent.
// If ctx is done when the fit fails, the gate stays armed for the next point.
func (c *Coordinator) AddPoint(ctx context.Context, p models.Point) State {
	c.store.Append(p)
	if c.autoFitArmed && c.snapshot == nil && c.store.Size() >= MinFitPoints {
		c.autoFitArmed = false
		pts := c.store.All()
		labels, err := fit(ctx, c.oracle, pts)
		c.record(ctx, models.TriggerAuto, len(pts), labels, err)
		switch {
		case err != nil && ctx.Err() != nil:
			// An abandoned caller does not count as the one automatic attempt.
			c.autoFitArmed = true
			c.logger.Debug("automatic fit cancelled", zap.Int("points", len(pts)), zap.Error(err))
		case err != nil:
			c.logger.Debug("automatic fit failed", zap.Int("points", len(pts)), zap.Error(err))
		default:
			c.snapshot = NewSnapshot(labels)
			c.logger.Debug("automatic fit succeeded",
				zap.Int("points", len(pts)), zap.Int("clusters", c.snapshot.ClusterCount()))
		}
	}
	return c.State()
}

// Recluster fits every stored point. With fewer than MinFitPoints points it is a
// no-op. On failure the snapshot is left untouched and Outcome.Warning is set.
func (c *Coordinator) Recluster(ctx context.Context) Outcome {
	if c.store.Size() < MinFitPoints {
		return Outcome{}
	}
	pts := c.store.All()
	labels, err := fit(ctx, c.oracle, pts)
	c.record(ctx, models.TriggerManual, len(pts), labels, err)
	if err != nil {
		c.logger.Warn(ManualFitWarning, zap.Int("points", len(pts)),
			zap.Int("covered_count", c.snapshot.CoveredCount()), zap.Error(err))
		return Outcome{Attempted: true, Warning: ManualFitWarning}
	}
	c.snapshot = NewSnapshot(labels)
	c.autoFitArmed = false
	c.logger.Debug("manual fit succeeded",
		zap.Int("points", len(pts)), zap.Int("clusters", c.snapshot.ClusterCount()))
	return Outcome{Attempted: true, Fitted: true}
}

// Reset empties the points, discards the snapshot, and re-arms the auto-fit gate.
func (c *Coordinator) Reset() {
	c.store.Reset()
	c.snapshot = nil
	c.autoFitArmed = true
	if c.previewer.cache != nil {
		c.previewer.cache.Purge()
	}
}

// State derives the current state from the point count and snapshot.
func (c *Coordinator) State() State {
	return deriveState(c.store.Size(), c.snapshot)
}

// Size returns the number of stored points.
func (c *Coordinator) Size() int {
	return c.store.Size()
}

// CoveredCount returns the number of points covered by the snapshot, or 0.
func (c *Coordinator) CoveredCount() int {
	return c.snapshot.CoveredCount()
}

// Snapshot returns the current snapshot, or nil if no fit has succeeded since the last reset.
func (c *Coordinator) Snapshot() *Snapshot {
	return c.snapshot
}

// AutoFitArmed reports whether the automatic first fit is still pending.
func (c *Coordinator) AutoFitArmed() bool {
	return c.autoFitArmed
}

// Points returns a copy of the stored points.
func (c *Coordinator) Points() []models.Point {
	return c.store.All()
}

// Previewer returns the display-only fit path.
func (c *Coordinator) Previewer() *Previewer {
	return c.previewer
}

func (c *Coordinator) record(ctx context.Context, trigger models.FitTrigger, n int, labels []int, err error) {
	if c.recorder == nil {
		return
	}
	rec := &models.FitRecord{
		Trigger:    trigger,
		PointCount: n,
		Success:    err == nil,
		CreatedAt:  c.now(),
	}
	if err == nil {
		rec.ClusterCount = countClusters(labels)
	}
	c.recorder.RecordFit(ctx, rec)
}
