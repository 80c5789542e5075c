// Package domain holds the types and ports shared by the ingest pipeline stages
package domain

import (
	"time"

	"ghloader/internal/adapters/ingest/gharchive"
)

// HourRef re-exports the bucket identifier so stages do not import the adapter directly
type HourRef = gharchive.HourRef

// Row is one flattened output row, values in catalogue column order
// Values are nil, string, int64, bool, []int64 or []string
type Row []any

// Outcome classifies what happened to one raw line
type Outcome int

const (
	// Emitted means the event produced its event log row (and any entity rows)
	Emitted Outcome = iota
	// Duplicate means the event id was already seen in the current month scope
	Duplicate
	// Skipped means the line was malformed or carried an unknown type tag
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Emitted:
		return "emitted"
	case Duplicate:
		return "duplicate"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// DayBatch is a finalized, closed set of per-table CSV files for one day
type DayBatch struct {
	Day   string
	Files map[string]string
	Rows  map[string]int64
}

// TableLoad is the result of loading one table file of a day
type TableLoad struct {
	Table     string
	Rows      int64
	Attempts  int
	Recovered bool
	// Partial marks a failed table whose earlier batches stayed in a non-transactional backend
	// Rows then counts what was kept; reloading the file duplicates those rows
	Partial bool
	Err     string
	Elapsed time.Duration
}

// DayLoad is the per-table load result for one day
type DayLoad struct {
	Day    string
	Tables []TableLoad
	// LeaseHeld is set when another run owns the day and nothing was loaded
	LeaseHeld bool
}

// Failed reports whether any table of the day was abandoned
func (d DayLoad) Failed() bool {
	for _, t := range d.Tables {
		if t.Err != "" {
			return true
		}
	}
	return false
}

// Counters are the normalizer's line level tallies
type Counters struct {
	Lines      int64 `json:"lines"`
	Emitted    int64 `json:"emitted"`
	Duplicates int64 `json:"duplicates"`
	Malformed  int64 `json:"malformed"`
	Unknown    int64 `json:"unknown"`
}

// Add accumulates o into c
func (c *Counters) Add(o Counters) {
	c.Lines += o.Lines
	c.Emitted += o.Emitted
	c.Duplicates += o.Duplicates
	c.Malformed += o.Malformed
	c.Unknown += o.Unknown
}

// RunReport summarizes a finished pipeline run
type RunReport struct {
	RunID    string
	Start    time.Time
	End      time.Time
	Buckets  int
	Counters Counters
	Days     []DayLoad
	Elapsed  time.Duration
}

// QueueStat is the occupancy of one hand-off queue
type QueueStat struct {
	Name string `json:"name"`
	Len  int    `json:"len"`
	Cap  int    `json:"cap"`
}

// Snapshot is the live view of a run served by the status endpoint
type Snapshot struct {
	RunID      string            `json:"run_id"`
	Start      string            `json:"start"`
	End        string            `json:"end"`
	Running    bool              `json:"running"`
	LastBucket map[string]string `json:"last_bucket"`
	Queues     []QueueStat       `json:"queues"`
	DaysLoaded []string          `json:"days_loaded"`
	Counters   Counters          `json:"counters"`
	Err        string            `json:"error,omitempty"`
}
