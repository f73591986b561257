package clustering

// State is the coordinator's conceptual state, derived from the point count and snapshot.
type State int

const (
	// StateEmpty means no points.
	StateEmpty State = iota
	// StateInsufficient means one point; no fit is possible.
	StateInsufficient
	// StateUnfitted means two or more points and no successful fit yet.
	StateUnfitted
	// StateFittedCurrent means the snapshot covers every point.
	StateFittedCurrent
	// StateFittedStale means points were added after the snapshot was taken.
	StateFittedStale
)

var stateNames = [...]string{
	StateEmpty:         "EMPTY",
	StateInsufficient:  "INSUFFICIENT",
	StateUnfitted:      "UNFITTED",
	StateFittedCurrent: "FITTED_CURRENT",
	StateFittedStale:   "FITTED_STALE",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func deriveState(size int, snap *Snapshot) State {
	switch {
	case snap != nil && snap.CoveredCount() == size:
		return StateFittedCurrent
	case snap != nil:
		return StateFittedStale
	case size == 0:
		return StateEmpty
	case size < MinFitPoints:
		return StateInsufficient
	default:
		return StateUnfitted
	}
}
