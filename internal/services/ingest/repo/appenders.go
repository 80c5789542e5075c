package repo

import (
	"context"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/store"
	"ghloader/internal/services/ingest/domain"
)

// PGAppender sends typed rows to Postgres with the binary COPY protocol
// every batch of one table shares a single transaction
type PGAppender struct {
	db store.TxRunner
}

// NewPGAppender binds the appender to db
func NewPGAppender(db store.TxRunner) *PGAppender { return &PGAppender{db: db} }

// Atomic implements domain.Appender
func (a *PGAppender) Atomic() bool { return true }

// Table implements domain.Appender
func (a *PGAppender) Table(ctx context.Context, table string, fn func(add domain.AddRows) error) error {
	err := a.db.Tx(ctx, func(q store.Querier) error {
		return fn(func(cols []string, rows [][]any) (int64, error) {
			n, err := q.CopyRows(ctx, table, cols, rows)
			return n, perr.FromPostgresf(err, "copy rows %s", table)
		})
	})
	if _, ours := perr.As(err); err != nil && !ours {
		return perr.FromPostgresf(err, "commit %s", table)
	}
	return err
}

// CHAppender sends typed rows to ClickHouse through a prepared batch
type CHAppender struct {
	ch store.Clickhouse
}

// NewCHAppender binds the appender to a ClickHouse seam
func NewCHAppender(c store.Clickhouse) *CHAppender { return &CHAppender{ch: c} }

// Atomic implements domain.Appender; ClickHouse has no transactions, each batch lands on its own
func (a *CHAppender) Atomic() bool { return false }

// Table implements domain.Appender
func (a *CHAppender) Table(ctx context.Context, table string, fn func(add domain.AddRows) error) error {
	t, ok := domain.TableByName(table)
	if !ok {
		return perr.Newf(perr.ErrorCodeLoad, "clickhouse: unknown table %s", table)
	}
	return fn(func(cols []string, rows [][]any) (int64, error) {
		return a.insert(ctx, t, cols, rows)
	})
}

// insert sends one batch; ClickHouse arrays are not nullable, so NULL arrays become empty arrays
func (a *CHAppender) insert(ctx context.Context, t domain.Table, cols []string, rows [][]any) (int64, error) {
	for _, r := range rows {
		for i, v := range r {
			if v != nil || i >= len(t.Columns) {
				continue
			}
			switch t.Columns[i].Type {
			case domain.BigIntArray:
				r[i] = []int64{}
			case domain.TextArray:
				r[i] = []string{}
			}
		}
	}
	n, err := a.ch.Insert(ctx, t.Name, cols, rows)
	if err != nil {
		return n, perr.Wrapf(err, perr.ErrorCodeDB, "clickhouse: insert %s", t.Name)
	}
	return n, nil
}
