// Package storage provides SQLite implementation of the FitLog interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/mixpad/internal/models"
)

// SQLiteFitLog implements FitLog using SQLite.
type SQLiteFitLog struct {
	db *sql.DB
}

// NewSQLiteFitLog opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteFitLog(dbPath string) (*SQLiteFitLog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteFitLog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS fits (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		fit_trigger TEXT NOT NULL,
		point_count INTEGER NOT NULL,
		cluster_count INTEGER NOT NULL,
		success INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_fits_session_created ON fits(session_id, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordFit inserts a fit record. ID and CreatedAt are filled in when unset.
func (s *SQLiteFitLog) RecordFit(ctx context.Context, rec *models.FitRecord) error {
	if rec.SessionID == "" {
		return fmt.Errorf("fit record has no session id")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fits (id, session_id, fit_trigger, point_count, cluster_count, success, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, string(rec.Trigger), rec.PointCount, rec.ClusterCount, rec.Success, rec.CreatedAt,
	)
	return err
}

// ListFits returns up to limit records for a session, oldest first. A non-positive limit returns all.
func (s *SQLiteFitLog) ListFits(ctx context.Context, sessionID string, limit int) ([]*models.FitRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, fit_trigger, point_count, cluster_count, success, created_at
		 FROM fits WHERE session_id = ? ORDER BY created_at, rowid LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.FitRecord
	for rows.Next() {
		var rec models.FitRecord
		var trigger string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &trigger, &rec.PointCount, &rec.ClusterCount, &rec.Success, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Trigger = models.FitTrigger(trigger)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// DeleteSession removes every record for a session.
func (s *SQLiteFitLog) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fits WHERE session_id = ?`, sessionID)
	return err
}

// CountFits returns the total number of records.
func (s *SQLiteFitLog) CountFits(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fits`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteFitLog) Close() error {
	return s.db.Close()
}
