// Package storage defines the persistence interface for the fit history.
package storage

import (
	"context"

	"github.com/hyperjump/mixpad/internal/models"
)

// FitLog records state-changing fit attempts per session. It is an audit trail
// only; session state is never restored from it.
type FitLog interface {
	RecordFit(ctx context.Context, rec *models.FitRecord) error
	ListFits(ctx context.Context, sessionID string, limit int) ([]*models.FitRecord, error)
	DeleteSession(ctx context.Context, sessionID string) error
	CountFits(ctx context.Context) (int64, error)

	Close() error
}
