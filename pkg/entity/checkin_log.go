package entity

import (
	"maps"
	"slices"
)

type Status string

const (
	// StatusSkipped is never stored: it is what a missing record means.
	StatusSkipped Status = "skipped"
	StatusDone    Status = "done"
	StatusNotDone Status = "not_done"
)

// NextStatus cycles skipped -> done -> not_done -> skipped.
func NextStatus(s Status) Status {
	switch s {
	case StatusSkipped:
		return StatusDone
	case StatusDone:
		return StatusNotDone
	default:
		return StatusSkipped
	}
}

// CheckInLog holds at most one check-in per date key.
type CheckInLog map[DateKey]CheckIn

func NewCheckInLog(checkIns []CheckIn) CheckInLog {
	log := make(CheckInLog, len(checkIns))
	for _, c := range checkIns {
		log[c.DateKey] = c
	}
	return log
}

func (l CheckInLog) Clone() CheckInLog {
	if l == nil {
		return CheckInLog{}
	}
	return maps.Clone(l)
}

// StatusOf returns the stored status or StatusSkipped when there is no record.
func (l CheckInLog) StatusOf(date DateKey) Status {
	c, ok := l[date]
	if !ok {
		return StatusSkipped
	}
	return c.Status
}

// Slice returns the records sorted by date key.
func (l CheckInLog) Slice() []CheckIn {
	keys := slices.Sorted(maps.Keys(l))
	out := make([]CheckIn, 0, len(keys))
	for _, k := range keys {
		out = append(out, l[k])
	}
	return out
}

// With returns a copy of the log where date holds rec, or no record when rec is nil.
func (l CheckInLog) With(date DateKey, rec *CheckIn) CheckInLog {
	next := l.Clone()
	if rec == nil {
		delete(next, date)
		return next
	}
	next[date] = *rec
	return next
}
