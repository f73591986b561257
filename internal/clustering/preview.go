package clustering

import (
	"context"

	"github.com/hyperjump/mixpad/internal/models"
	"go.uber.org/zap"
)

// Previewer runs display-only fits. It has no access to coordinator state, so a
// preview can never become the persisted snapshot.
type Previewer struct {
	oracle Oracle
	cache  *PreviewCache
	logger *zap.Logger
}

// NewPreviewer returns a previewer over oracle. cache may be nil.
func NewPreviewer(oracle Oracle, cache *PreviewCache, logger *zap.Logger) *Previewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Previewer{oracle: oracle, cache: cache, logger: logger}
}

// Preview fits pts for display only and returns the labels, or ok=false if the
// fit failed or fewer than MinFitPoints points were given.
func (p *Previewer) Preview(ctx context.Context, pts []models.Point) (labels []int, ok bool) {
	if len(pts) < MinFitPoints {
		return nil, false
	}
	if labels, ok, found := p.cache.Get(pts); found {
		return labels, ok
	}
	labels, err := fit(ctx, p.oracle, pts)
	if err != nil {
		p.logger.Debug("preview fit failed", zap.Int("points", len(pts)), zap.Error(err))
		p.cache.Set(pts, nil, false)
		return nil, false
	}
	p.cache.Set(pts, labels, true)
	return labels, true
}
