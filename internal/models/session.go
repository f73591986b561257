package models

// SessionView is the externally visible state of one clustering session.
type SessionView struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	Size         int    `json:"size"`
	CoveredCount int    `json:"covered_count"`
	Labels       []int  `json:"labels,omitempty"`
	// Warning is set only when a manual re-fit failed and the previous clustering was kept.
	Warning string `json:"warning,omitempty"`
}
