package domain

import (
	"context"
	"time"
)

// RunnerPort is the public port of the ingest module
type RunnerPort interface {
	Run(ctx context.Context, start, end time.Time) (RunReport, error)
}

// Fetcher materializes the compressed artifact for one bucket
type Fetcher interface {
	Fetch(ctx context.Context, hour HourRef) (string, error)
}

// Expander turns a fetched bucket into its raw line file
type Expander interface {
	Expand(ctx context.Context, hour HourRef) (string, error)
}

// Loader bulk-loads one finalized day
// Per table failures are reported in DayLoad; a returned error aborts the run
type Loader interface {
	Load(ctx context.Context, batch DayBatch) (DayLoad, error)
}

// Sanitizer strips NUL bytes from a file in place
type Sanitizer interface {
	StripNUL(ctx context.Context, path string) error
}

// AddRows appends one batch of typed rows to the table of the surrounding unit of work
type AddRows func(cols []string, rows [][]any) (int64, error)

// Appender receives typed rows for one table (the slower row by row load path)
// Table scopes every batch fn adds to one unit of work. When Atomic is true a failed
// Table call leaves no rows behind; otherwise batches added before the failure stay
type Appender interface {
	Table(ctx context.Context, table string, fn func(add AddRows) error) error
	Atomic() bool
}

// SchemaRepo owns table and index DDL
type SchemaRepo interface {
	CreateTables(ctx context.Context) error
	BuildIndexes(ctx context.Context) error
}

// RowWriter is the per table write surface the normalizer sees
type RowWriter interface {
	WriteRow(table string, row Row) error
}

// StatusSource exposes the live snapshot of the current run
type StatusSource interface {
	Snapshot() Snapshot
}
