// Package planner turns a calendar date range into the descending sequence of hour buckets
package planner

import (
	"iter"
	"time"

	perr "ghloader/internal/platform/errors"
	ptime "ghloader/internal/platform/time"
	"ghloader/internal/services/ingest/domain"
)

// Plan covers every hour of [start, end] (inclusive, whole days, UTC)
type Plan struct {
	start time.Time
	end   time.Time
}

// New validates the range and returns its plan
// Times are truncated to their UTC day
func New(start, end time.Time) (Plan, error) {
	s, e := ptime.Day(start), ptime.Day(end)
	if e.Before(s) {
		return Plan{}, perr.InvalidRangef("end %s precedes start %s", ptime.FormatDay(e), ptime.FormatDay(s))
	}
	return Plan{start: s, end: e}, nil
}

// Start returns the first day of the range
func (p Plan) Start() time.Time { return p.start }

// End returns the last day of the range
func (p Plan) End() time.Time { return p.end }

// Len is the number of buckets in the plan
func (p Plan) Len() int {
	return int(p.end.Sub(p.start)/time.Hour) + 24
}

// Newest is the first bucket emitted (hour 23 of the end day)
func (p Plan) Newest() domain.HourRef {
	return domain.HourRef{Year: p.end.Year(), Month: int(p.end.Month()), Day: p.end.Day(), Hour: 23}
}

// Oldest is the last bucket emitted and the termination sentinel of the hour stages
func (p Plan) Oldest() domain.HourRef {
	return domain.HourRef{Year: p.start.Year(), Month: int(p.start.Month()), Day: p.start.Day(), Hour: 0}
}

// OldestDay is the termination sentinel of the load stage
func (p Plan) OldestDay() string { return ptime.FormatDay(p.start) }

// Buckets yields every hour from newest to oldest
// Each call starts a fresh traversal
func (p Plan) Buckets() iter.Seq[domain.HourRef] {
	return func(yield func(domain.HourRef) bool) {
		last := p.end.Add(23 * time.Hour)
		for t := last; !t.Before(p.start); t = t.Add(-time.Hour) {
			if !yield(domain.HourRef{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour()}) {
				return
			}
		}
	}
}
