package catalog

import "time"

// TimeRange specifies a closed time window. Both ends are inclusive and a
// range whose Start is after its End contains nothing.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains checks if a timestamp falls within the range.
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && !t.After(tr.End)
}

// IsEmpty reports whether no instant can fall within the range.
func (tr TimeRange) IsEmpty() bool {
	return tr.Start.After(tr.End)
}
