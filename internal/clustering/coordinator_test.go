package clustering_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
	"github.com/hyperjump/mixpad/internal/oracle"
)

type recorder struct {
	mu      sync.Mutex
	records []*models.FitRecord
}

func (r *recorder) RecordFit(_ context.Context, rec *models.FitRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func add(t *testing.T, c *clustering.Coordinator, x, y float64) clustering.State {
	t.Helper()
	return c.AddPoint(context.Background(), models.Point{X: x, Y: y})
}

// scenarioA adds (0,0) and (1,1) to a fresh coordinator over m.
func scenarioA(t *testing.T, m *oracle.Mock) *clustering.Coordinator {
	t.Helper()
	c := clustering.NewCoordinator(m)
	require.Equal(t, clustering.StateInsufficient, add(t, c, 0, 0))
	require.Equal(t, clustering.StateFittedCurrent, add(t, c, 1, 1))
	return c
}

func TestCoordinator_ScenarioA_AutoFitAtTwoPoints(t *testing.T) {
	m := oracle.NewMock()
	c := scenarioA(t, m)
	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, 2, c.CoveredCount())
	assert.Equal(t, []int{1, 1}, c.Snapshot().Labels())
	assert.False(t, c.AutoFitArmed())
}

func TestCoordinator_ScenarioB_NewPointIsPending(t *testing.T) {
	m := oracle.NewMock()
	c := scenarioA(t, m)
	assert.Equal(t, clustering.StateFittedStale, add(t, c, 5, 5))
	assert.Equal(t, 2, c.CoveredCount())
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, 1, m.Calls(), "adding after a fit must not re-fit")
}

func TestCoordinator_ScenarioC_ReclusterCoversAll(t *testing.T) {
	m := oracle.NewMock()
	c := scenarioA(t, m)
	add(t, c, 5, 5)
	out := c.Recluster(context.Background())
	assert.True(t, out.Attempted)
	assert.True(t, out.Fitted)
	assert.Empty(t, out.Warning)
	assert.Equal(t, 3, c.CoveredCount())
	assert.Equal(t, clustering.StateFittedCurrent, c.State())
	assert.Len(t, m.LastInput(), 3, "manual fit uses all points, not just pending ones")
}

func TestCoordinator_ScenarioD_ResetRearmsGate(t *testing.T) {
	m := oracle.NewMock()
	c := scenarioA(t, m)
	add(t, c, 5, 5)
	c.Recluster(context.Background())

	c.Reset()
	assert.Equal(t, clustering.StateEmpty, c.State())
	assert.Equal(t, 0, c.Size())
	assert.Nil(t, c.Snapshot())
	assert.True(t, c.AutoFitArmed())

	calls := m.Calls()
	add(t, c, 0.2, 0.2)
	assert.Equal(t, clustering.StateFittedCurrent, add(t, c, 0.4, 0.4))
	assert.Equal(t, calls+1, m.Calls())
}

func TestCoordinator_ScenarioE_ReclusterBelowTwoIsNoop(t *testing.T) {
	m := oracle.NewMock()
	c := clustering.NewCoordinator(m)
	assert.Equal(t, clustering.Outcome{}, c.Recluster(context.Background()))
	add(t, c, 0, 0)
	out := c.Recluster(context.Background())
	assert.False(t, out.Attempted)
	assert.Equal(t, clustering.StateInsufficient, c.State())
	assert.Nil(t, c.Snapshot())
	assert.Equal(t, 0, m.Calls())
	assert.True(t, c.AutoFitArmed())
}

func TestCoordinator_AutoFitFailureIsSilentAndNotRetried(t *testing.T) {
	m := oracle.NewMock().Script(true)
	rec := &recorder{}
	c := clustering.NewCoordinator(m, clustering.WithRecorder(rec))
	add(t, c, 0, 0)
	assert.Equal(t, clustering.StateUnfitted, add(t, c, 1, 1))
	assert.Nil(t, c.Snapshot())
	assert.False(t, c.AutoFitArmed())

	for i := 0; i < 5; i++ {
		assert.Equal(t, clustering.StateUnfitted, add(t, c, float64(i), 2))
	}
	assert.Equal(t, 1, m.Calls(), "automatic fit is attempted at most once between resets")

	out := c.Recluster(context.Background())
	assert.True(t, out.Fitted)
	assert.Equal(t, 7, c.CoveredCount())

	require.Len(t, rec.records, 2)
	assert.Equal(t, models.TriggerAuto, rec.records[0].Trigger)
	assert.False(t, rec.records[0].Success)
	assert.Equal(t, models.TriggerManual, rec.records[1].Trigger)
	assert.True(t, rec.records[1].Success)
	assert.Equal(t, 1, rec.records[1].ClusterCount)
}

func TestCoordinator_ManualFailurePreservesSnapshot(t *testing.T) {
	m := oracle.NewMock().WithLabeler(oracle.SplitAtX(0.5))
	c := scenarioA(t, m)
	add(t, c, 5, 5)
	before := c.Snapshot()
	beforeLabels := before.Labels()

	m.Script(true)
	out := c.Recluster(context.Background())
	assert.True(t, out.Attempted)
	assert.False(t, out.Fitted)
	assert.Equal(t, clustering.ManualFitWarning, out.Warning)
	assert.Same(t, before, c.Snapshot())
	assert.Equal(t, beforeLabels, c.Snapshot().Labels())
	assert.Equal(t, 2, c.CoveredCount())
	assert.Equal(t, clustering.StateFittedStale, c.State())
}

func TestCoordinator_ManualFailureFromUnfitted(t *testing.T) {
	m := oracle.NewMock().SetFail(true)
	c := clustering.NewCoordinator(m)
	add(t, c, 0, 0)
	add(t, c, 1, 1)
	out := c.Recluster(context.Background())
	assert.Equal(t, clustering.ManualFitWarning, out.Warning)
	assert.Equal(t, clustering.StateUnfitted, c.State())
}

func TestCoordinator_ReclusterIsIdempotent(t *testing.T) {
	m := oracle.NewMock().WithLabeler(oracle.SplitAtX(0.5))
	c := scenarioA(t, m)
	add(t, c, 5, 5)
	c.Recluster(context.Background())
	first := c.Snapshot()
	c.Recluster(context.Background())
	assert.True(t, first.Equal(c.Snapshot()))
}

func TestCoordinator_WrongLabelCountIsFailure(t *testing.T) {
	bad := clustering.OracleFunc(func(_ context.Context, pts []models.Point) ([]int, error) {
		return []int{1}, nil
	})
	c := clustering.NewCoordinator(bad)
	add(t, c, 0, 0)
	assert.Equal(t, clustering.StateUnfitted, add(t, c, 1, 1))
	assert.Equal(t, clustering.ManualFitWarning, c.Recluster(context.Background()).Warning)
}

func TestCoordinator_SnapshotIsImmutable(t *testing.T) {
	c := scenarioA(t, oracle.NewMock())
	labels := c.Snapshot().Labels()
	labels[0] = 42
	label, ok := c.Snapshot().Label(0)
	assert.True(t, ok)
	assert.Equal(t, 1, label)
}

func TestSnapshot_LabelOutOfRange(t *testing.T) {
	var absent *clustering.Snapshot
	_, ok := absent.Label(0)
	assert.False(t, ok)

	s := clustering.NewSnapshot([]int{1, 2})
	for _, i := range []int{-1, 2} {
		_, ok := s.Label(i)
		assert.False(t, ok, "index %d", i)
	}
}

func TestCoordinator_CancelledAutoFitKeepsGateArmed(t *testing.T) {
	calls := 0
	orc := clustering.OracleFunc(func(ctx context.Context, pts []models.Point) ([]int, error) {
		calls++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return oracle.SingleCluster(pts), nil
	})
	c := clustering.NewCoordinator(orc)
	add(t, c, 0.1, 0.1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, clustering.StateUnfitted, c.AddPoint(ctx, models.Point{X: 0.9, Y: 0.9}))
	assert.True(t, c.AutoFitArmed())
	assert.Nil(t, c.Snapshot())

	assert.Equal(t, clustering.StateFittedCurrent, add(t, c, 0.5, 0.5))
	assert.False(t, c.AutoFitArmed())
	assert.Equal(t, 3, c.CoveredCount())
	assert.Equal(t, 2, calls)
}

// TestCoordinator_InvariantsUnderRandomActions drives random action sequences and
// checks coverage bounds, state derivation, and the one-auto-fit-per-reset gate.
func TestCoordinator_InvariantsUnderRandomActions(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 50; run++ {
		m := oracle.NewMock().SetFail(rng.Intn(2) == 0)
		rec := &recorder{}
		c := clustering.NewCoordinator(m, clustering.WithRecorder(rec))
		autoSinceReset := 0
		for step := 0; step < 40; step++ {
			before := c.Snapshot()
			switch rng.Intn(6) {
			case 0:
				c.Reset()
				autoSinceReset = 0
				require.Equal(t, clustering.StateEmpty, c.State())
				require.True(t, c.AutoFitArmed())
			case 1:
				m.SetFail(rng.Intn(3) == 0)
				out := c.Recluster(context.Background())
				if out.Attempted && !out.Fitted {
					require.Same(t, before, c.Snapshot())
				}
			default:
				n := len(rec.records)
				c.AddPoint(context.Background(), models.Point{X: rng.Float64(), Y: rng.Float64()})
				if len(rec.records) > n && rec.records[n].Trigger == models.TriggerAuto {
					autoSinceReset++
				}
			}
			require.LessOrEqual(t, autoSinceReset, 1)
			require.GreaterOrEqual(t, c.CoveredCount(), 0)
			require.LessOrEqual(t, c.CoveredCount(), c.Size())
			switch st := c.State(); {
			case c.Snapshot() != nil && c.CoveredCount() == c.Size():
				require.Equal(t, clustering.StateFittedCurrent, st)
			case c.Snapshot() != nil:
				require.Equal(t, clustering.StateFittedStale, st)
			}
		}
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "EMPTY", clustering.StateEmpty.String())
	assert.Equal(t, "FITTED_STALE", clustering.StateFittedStale.String())
	assert.Equal(t, "UNKNOWN", clustering.State(99).String())
	b, err := clustering.StateUnfitted.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "UNFITTED", string(b))
}
