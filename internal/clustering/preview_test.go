package clustering_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
	"github.com/hyperjump/mixpad/internal/oracle"
)

func TestPreview_DoesNotTouchCoordinatorState(t *testing.T) {
	m := oracle.NewMock().Script(true)
	c := clustering.NewCoordinator(m)
	add(t, c, 0, 0)
	add(t, c, 1, 1)
	assert.Equal(t, clustering.StateUnfitted, c.State())

	labels, ok := c.Previewer().Preview(context.Background(), c.Points())
	assert.True(t, ok)
	assert.Equal(t, []int{1, 1}, labels)
	assert.Nil(t, c.Snapshot(), "a preview must never become the snapshot")
	assert.Equal(t, clustering.StateUnfitted, c.State())
}

func TestPreview_UncachedRefitsEveryCall(t *testing.T) {
	m := oracle.NewMock()
	p := clustering.NewPreviewer(m, nil, nil)
	pts := []models.Point{{X: 0}, {X: 1}}
	p.Preview(context.Background(), pts)
	p.Preview(context.Background(), pts)
	assert.Equal(t, 2, m.Calls())
}

func TestPreview_CachedByPointSet(t *testing.T) {
	m := oracle.NewMock().Script(true)
	p := clustering.NewPreviewer(m, clustering.NewPreviewCache(4), nil)
	pts := []models.Point{{X: 0}, {X: 1}}

	_, ok := p.Preview(context.Background(), pts)
	assert.False(t, ok)
	_, ok = p.Preview(context.Background(), pts)
	assert.False(t, ok, "cached failure is returned without refitting")
	assert.Equal(t, 1, m.Calls())

	_, ok = p.Preview(context.Background(), append(pts, models.Point{X: 2}))
	assert.True(t, ok)
	assert.Equal(t, 2, m.Calls())
}

func TestPreview_BelowTwoPointsSkipsOracle(t *testing.T) {
	m := oracle.NewMock()
	p := clustering.NewPreviewer(m, nil, nil)
	_, ok := p.Preview(context.Background(), []models.Point{{X: 0}})
	assert.False(t, ok)
	assert.Equal(t, 0, m.Calls())
}

func TestCoordinator_ResetPurgesPreviewCache(t *testing.T) {
	cache := clustering.NewPreviewCache(4)
	c := clustering.NewCoordinator(oracle.NewMock().SetFail(true), clustering.WithPreviewCache(cache))
	add(t, c, 0, 0)
	add(t, c, 1, 1)
	c.Previewer().Preview(context.Background(), c.Points())
	assert.Equal(t, 1, cache.Len())
	c.Reset()
	assert.Equal(t, 0, cache.Len())
}
