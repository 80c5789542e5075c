package guardrails

import (
	"context"
	"errors"
	"sync/atomic"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
	"ghloader/internal/platform/store"
	"ghloader/internal/services/ingest/domain"
)

// ErrLeaseHeld signals another run owns the day already
var ErrLeaseHeld = errors.New("ingest: day lease already held")

const leaseDDL = `create table if not exists ingest_day_leases (
	day        text primary key,
	run_id     text not null,
	claimed_at timestamptz not null default now()
)`

// DayLease claims days in Postgres so two runs never load the same day
// A claim is a one-time insert; Release drops it so a later run can retry the day
type DayLease struct {
	db      store.TxRunner
	ensured atomic.Bool
}

// NewDayLease binds the lease table to db
func NewDayLease(db store.TxRunner) *DayLease { return &DayLease{db: db} }

// Claim records runID as the owner of day; false when another run holds it
func (l *DayLease) Claim(ctx context.Context, day, runID string) (bool, error) {
	if !l.ensured.Load() {
		if _, err := l.db.Exec(ctx, leaseDDL); err != nil {
			return false, perr.FromPostgresf(err, "create lease table")
		}
		l.ensured.Store(true)
	}

	var claimed bool
	err := l.db.Tx(ctx, func(q store.Querier) error {
		got, err := store.Many(ctx, q, scanBool, `
			insert into ingest_day_leases (day, run_id)
			values ($1, $2)
			on conflict (day) do nothing
			returning true
		`, day, runID)
		claimed = len(got) == 1
		return err
	})
	if err != nil {
		return false, perr.FromPostgresf(err, "claim day %s", day)
	}
	return claimed, nil
}

func scanBool(r store.Row) (bool, error) {
	var b bool
	err := r.Scan(&b)
	return b, err
}

// Release drops the claim of runID on day
func (l *DayLease) Release(ctx context.Context, day, runID string) error {
	_, err := l.db.Exec(ctx, `delete from ingest_day_leases where day = $1 and run_id = $2`, day, runID)
	return perr.FromPostgresf(err, "release day %s", day)
}

// LeasedLoader loads a day only after claiming its lease
// A day that fails to load, fully or partially, is released again
type LeasedLoader struct {
	inner domain.Loader
	lease *DayLease
	log   *logger.Logger
}

// WithDayLease wraps inner with the lease
func WithDayLease(inner domain.Loader, lease *DayLease) *LeasedLoader {
	return &LeasedLoader{inner: inner, lease: lease, log: logger.Named("lease")}
}

// Load implements domain.Loader
func (l *LeasedLoader) Load(ctx context.Context, batch domain.DayBatch) (domain.DayLoad, error) {
	runID := logger.RunID(ctx)
	claimed, err := l.lease.Claim(ctx, batch.Day, runID)
	if err != nil {
		return domain.DayLoad{Day: batch.Day}, err
	}
	if !claimed {
		l.log.Warn().Str("day", batch.Day).Err(ErrLeaseHeld).Msg("day skipped, its CSV files stay on disk")
		return domain.DayLoad{Day: batch.Day, LeaseHeld: true}, nil
	}

	res, err := l.inner.Load(ctx, batch)
	if err != nil || res.Failed() {
		if rerr := l.lease.Release(context.WithoutCancel(ctx), batch.Day, runID); rerr != nil {
			l.log.Error().Err(rerr).Str("day", batch.Day).Msg("lease release failed")
		}
	}
	return res, err
}
