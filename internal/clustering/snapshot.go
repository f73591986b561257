package clustering

// Snapshot is the immutable result of the most recent successful fit: the
// number of leading points it covers and the label of each of them.
type Snapshot struct {
	labels []int
}

// NewSnapshot returns a snapshot covering len(labels) points. labels is copied.
func NewSnapshot(labels []int) *Snapshot {
	cp := make([]int, len(labels))
	copy(cp, labels)
	return &Snapshot{labels: cp}
}

// CoveredCount returns how many leading points the fit included.
func (s *Snapshot) CoveredCount() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Label returns the label of covered point i. ok is false when i is not covered.
func (s *Snapshot) Label(i int) (label int, ok bool) {
	if s == nil || i < 0 || i >= len(s.labels) {
		return 0, false
	}
	return s.labels[i], true
}

// Labels returns a copy of the labels.
func (s *Snapshot) Labels() []int {
	if s == nil {
		return nil
	}
	cp := make([]int, len(s.labels))
	copy(cp, s.labels)
	return cp
}

// ClusterCount returns the number of distinct labels.
func (s *Snapshot) ClusterCount() int {
	if s == nil {
		return 0
	}
	return countClusters(s.labels)
}

// Equal reports whether two snapshots cover the same prefix with the same labels.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.labels) != len(other.labels) {
		return false
	}
	for i := range s.labels {
		if s.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}
