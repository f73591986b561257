package models

import "time"

// FitTrigger identifies what caused a state-changing fit.
type FitTrigger string

const (
	TriggerAuto   FitTrigger = "auto"
	TriggerManual FitTrigger = "manual"
)

// FitRecord is one entry in a session's fit history.
type FitRecord struct {
	ID           string     `json:"id" db:"id"`
	SessionID    string     `json:"session_id" db:"session_id"`
	Trigger      FitTrigger `json:"trigger" db:"fit_trigger"`
	PointCount   int        `json:"point_count" db:"point_count"`
	ClusterCount int        `json:"cluster_count" db:"cluster_count"`
	Success      bool       `json:"success" db:"success"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
