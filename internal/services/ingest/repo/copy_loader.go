package repo

import (
	"context"
	"os"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
	"ghloader/internal/platform/store"
	"ghloader/internal/services/ingest/domain"
)

// CopyLoader loads each table file with one COPY FROM STDIN per transaction
// An encoding violation rolls back, strips NUL bytes and retries exactly once
type CopyLoader struct {
	db  store.TxRunner
	san domain.Sanitizer
	pol Policy
	log *logger.Logger
}

// NewCopyLoader builds the default loader
func NewCopyLoader(db store.TxRunner, san domain.Sanitizer, pol Policy) *CopyLoader {
	if san == nil {
		san = InProcessSanitizer{}
	}
	return &CopyLoader{db: db, san: san, pol: pol, log: logger.Named("load")}
}

// Load implements domain.Loader
func (l *CopyLoader) Load(ctx context.Context, batch domain.DayBatch) (domain.DayLoad, error) {
	return loadDay(ctx, l.log, l.pol, batch, l.loadTable)
}

func (l *CopyLoader) loadTable(ctx context.Context, t domain.Table, path string, res *domain.TableLoad) error {
	n, err := l.copyOnce(ctx, t, path)
	res.Attempts = 1
	if err != nil && perr.IsEncodingViolation(err) {
		l.log.Warn().Err(err).Str("table", t.Name).Str("path", path).Msg("illegal character, stripping NUL bytes and retrying")
		if serr := l.san.StripNUL(ctx, path); serr != nil {
			return serr
		}
		n, err = l.copyOnce(ctx, t, path)
		res.Attempts = 2
		res.Recovered = err == nil
	}
	if err != nil {
		return perr.AttachFieldFromPg(perr.FromPostgresf(err, "copy %s", t.Name))
	}
	res.Rows = n
	return nil
}

func (l *CopyLoader) copyOnce(ctx context.Context, t domain.Table, path string) (int64, error) {
	var n int64
	err := l.db.Tx(ctx, func(q store.Querier) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		n, err = q.CopyCSV(ctx, t.Name, t.ColumnNames(), f)
		return err
	})
	return n, err
}
