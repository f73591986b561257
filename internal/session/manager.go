// Package session hosts independent clustering sessions, each owning one
// coordinator, and serializes the actions applied to each session.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
	"github.com/hyperjump/mixpad/internal/storage"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

type entry struct {
	mu       sync.Mutex
	coord    *clustering.Coordinator
	lastUsed time.Time
}

// Manager is a registry of sessions keyed by ID. Actions on one session run one
// at a time to completion; different sessions proceed independently.
type Manager struct {
	oracle           clustering.Oracle
	previewCacheSize int
	idleTimeout      time.Duration
	fitLog           storage.FitLog
	logger           *zap.Logger
	now              func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger passed to every coordinator.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithFitLog records every state-changing fit into log.
func WithFitLog(log storage.FitLog) Option {
	return func(m *Manager) { m.fitLog = log }
}

// WithPreviewCacheSize sets the per-session preview cache capacity. Zero disables caching.
func WithPreviewCacheSize(n int) Option {
	return func(m *Manager) { m.previewCacheSize = n }
}

// WithIdleTimeout sets how long an unused session survives. Zero keeps sessions forever.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}

// NewManager returns a manager whose sessions fit with oracle.
func NewManager(oracle clustering.Oracle, opts ...Option) *Manager {
	m := &Manager{
		oracle:   oracle,
		logger:   zap.NewNop(),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session in the EMPTY state and returns its ID.
func (m *Manager) Create() string {
	id := uuid.New().String()
	copts := []clustering.Option{clustering.WithLogger(m.logger.With(zap.String("session", id)))}
	if m.previewCacheSize > 0 {
		copts = append(copts, clustering.WithPreviewCache(clustering.NewPreviewCache(m.previewCacheSize)))
	}
	if m.fitLog != nil {
		copts = append(copts, clustering.WithRecorder(&recorder{sessionID: id, log: m.fitLog, logger: m.logger}))
	}

	m.mu.Lock()
	m.sessions[id] = &entry{coord: clustering.NewCoordinator(m.oracle, copts...), lastUsed: m.now()}
	m.mu.Unlock()
	m.logger.Debug("session created", zap.String("session", id))
	return id
}

// Do runs fn against the session's coordinator with exclusive access.
func (m *Manager) Do(ctx context.Context, id string, fn func(c *clustering.Coordinator) error) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		e.lastUsed = m.now()
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.coord)
}

// View returns the externally visible state of a session.
func (m *Manager) View(ctx context.Context, id string) (*models.SessionView, error) {
	var view *models.SessionView
	err := m.Do(ctx, id, func(c *clustering.Coordinator) error {
		view = ViewOf(id, c)
		return nil
	})
	return view, err
}

// List returns views of every session ordered by ID.
func (m *Manager) List(ctx context.Context) []*models.SessionView {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Strings(ids)

	views := make([]*models.SessionView, 0, len(ids))
	for _, id := range ids {
		if v, err := m.View(ctx, id); err == nil {
			views = append(views, v)
		}
	}
	return views
}

// Delete removes a session and its fit history.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.forget(ctx, id)
	return nil
}

// Fits returns the recorded fit history of a session.
func (m *Manager) Fits(ctx context.Context, id string, limit int) ([]*models.FitRecord, error) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	if m.fitLog == nil {
		return []*models.FitRecord{}, nil
	}
	return m.fitLog.ListFits(ctx, id, limit)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle since before now minus the idle timeout and
// returns how many were removed.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	if m.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-m.idleTimeout)
	var expired []string
	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, id := range expired {
		m.forget(ctx, id)
	}
	if len(expired) > 0 {
		m.logger.Info("expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			m.Sweep(ctx, t)
		}
	}
}

func (m *Manager) forget(ctx context.Context, id string) {
	if m.fitLog == nil {
		return
	}
	if err := m.fitLog.DeleteSession(ctx, id); err != nil {
		m.logger.Warn("failed to delete fit history", zap.String("session", id), zap.Error(err))
	}
}

// ViewOf builds the session view for coordinator c.
func ViewOf(id string, c *clustering.Coordinator) *models.SessionView {
	return &models.SessionView{
		ID:           id,
		State:        c.State().String(),
		Size:         c.Size(),
		CoveredCount: c.CoveredCount(),
		Labels:       c.Snapshot().Labels(),
	}
}

type recorder struct {
	sessionID string
	log       storage.FitLog
	logger    *zap.Logger
}

func (r *recorder) RecordFit(ctx context.Context, rec *models.FitRecord) {
	rec.SessionID = r.sessionID
	if err := r.log.RecordFit(ctx, rec); err != nil {
		r.logger.Warn("failed to record fit", zap.String("session", r.sessionID), zap.Error(err))
	}
}
