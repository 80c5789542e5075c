package service

import (
	"sync"
	"time"

	"ghloader/internal/services/ingest/domain"
)

type queueWatch struct {
	name string
	len  func() int
	cap  int
}

// Status tracks the progress of the active run for the status endpoint
// Every update also feeds the prometheus collectors, so /status and /metrics agree
// Safe for concurrent use
type Status struct {
	mu      sync.RWMutex
	snap    domain.Snapshot
	queues  []queueWatch
	metrics *Metrics
}

// NewStatus returns an idle status with its own metrics registry
func NewStatus() *Status {
	s := &Status{snap: domain.Snapshot{LastBucket: map[string]string{}}}
	s.metrics = newMetrics(s.queue)
	return s
}

// Metrics exposes the prometheus side of the status
func (s *Status) Metrics() *Metrics { return s.metrics }

func (s *Status) begin(runID, start, end string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = domain.Snapshot{RunID: runID, Start: start, End: end, Running: true, LastBucket: map[string]string{}}
	s.queues = nil
}

func watched[T any](name string, ch chan T) queueWatch {
	return queueWatch{name: name, len: func() int { return len(ch) }, cap: cap(ch)}
}

func (s *Status) watch(qs ...queueWatch) {
	s.mu.Lock()
	s.queues = append(s.queues, qs...)
	s.mu.Unlock()
}

// queue reports the live length and capacity of a named queue; zeros when it is not watched
func (s *Status) queue(name string) (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.queues {
		if q.name == name {
			return q.len(), q.cap
		}
	}
	return 0, 0
}

func (s *Status) bucketDone(stage string, h domain.HourRef, elapsed time.Duration) {
	s.mu.Lock()
	s.snap.LastBucket[stage] = h.String()
	s.mu.Unlock()
	s.metrics.stageDone(stage, elapsed)
}

func (s *Status) count(c domain.Counters) {
	s.mu.Lock()
	s.snap.Counters.Add(c)
	s.mu.Unlock()
	s.metrics.countLines(c)
}

func (s *Status) dayLoaded(res domain.DayLoad, elapsed time.Duration) {
	s.mu.Lock()
	s.snap.DaysLoaded = append(s.snap.DaysLoaded, res.Day)
	s.mu.Unlock()
	s.metrics.dayLoaded(res, elapsed)
}

func (s *Status) finish(err error) {
	s.mu.Lock()
	s.snap.Running = false
	if err != nil {
		s.snap.Err = err.Error()
	}
	s.mu.Unlock()
	s.metrics.runFinished(err)
}

// Snapshot returns a copy of the current state including live queue occupancy
func (s *Status) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.LastBucket = make(map[string]string, len(s.snap.LastBucket))
	for k, v := range s.snap.LastBucket {
		out.LastBucket[k] = v
	}
	out.DaysLoaded = append([]string(nil), s.snap.DaysLoaded...)
	for _, q := range s.queues {
		out.Queues = append(out.Queues, domain.QueueStat{Name: q.name, Len: q.len(), Cap: q.cap})
	}
	return out
}
