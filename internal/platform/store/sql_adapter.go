package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"ghloader/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx is the pgx surface shared by *pgxpool.Pool and pgx.Tx
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error)
}

// rawCopyFn streams a COPY ... FROM STDIN statement over a single connection
type rawCopyFn func(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error)

// querier implements Querier over any dbtx and emits trace events for every call
type querier struct {
	db      dbtx
	rawCopy rawCopyFn
	p       *pg.PG
}

// pgAdapter wraps pg.PG and implements TxRunner
type pgAdapter struct {
	querier
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	a := &pgAdapter{querier{db: p.Pool, p: p}}
	a.rawCopy = func(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error) {
		conn, err := p.Pool.Acquire(ctx)
		if err != nil {
			return pgconn.CommandTag{}, err
		}
		defer conn.Release()
		return conn.Conn().PgConn().CopyFrom(ctx, r, sql)
	}
	return a
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

// Tx runs fn inside a transaction; COPY inside fn goes over the tx connection
func (a *pgAdapter) Tx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	q := querier{db: tx, rawCopy: tx.Conn().PgConn().CopyFrom, p: a.p}
	if err := fn(q); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return err
	}
	return tx.Commit(ctx)
}

func (q querier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := q.db.Exec(ctx, sql, args...)
	q.emit(ctx, sql, args, ct.RowsAffected(), start, err)
	return tag{ct}, err
}

func (q querier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := q.db.Query(ctx, sql, args...)
	q.emit(ctx, sql, args, 0, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (q querier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := q.db.QueryRow(ctx, sql, args...)
	return row{r: r, after: func(scanErr error) { q.emit(ctx, sql, args, 1, start, scanErr) }}
}

// CopyCSV streams r into table via COPY ... FROM STDIN WITH (FORMAT csv)
func (q querier) CopyCSV(ctx context.Context, table string, cols []string, r io.Reader) (int64, error) {
	sql := CopyCSVStatement(table, cols)
	start := time.Now()
	ct, err := q.rawCopy(ctx, r, sql)
	q.emit(ctx, sql, nil, ct.RowsAffected(), start, err)
	return ct.RowsAffected(), err
}

// CopyRows sends typed rows through the binary COPY protocol
func (q querier) CopyRows(ctx context.Context, table string, cols []string, data [][]any) (int64, error) {
	start := time.Now()
	n, err := q.db.CopyFrom(ctx, pgx.Identifier{table}, cols, pgx.CopyFromRows(data))
	q.emit(ctx, "COPY "+Ident(table)+" FROM STDIN BINARY", nil, n, start, err)
	return n, err
}

func (q querier) emit(ctx context.Context, sql string, args []any, n int64, start time.Time, err error) {
	if q.p == nil || q.p.Tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	q.p.Tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		Rows:      n,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      q.p.Slow(elapsedUS),
	})
}

// CopyCSVStatement renders the COPY statement used for CSV bulk loads
func CopyCSVStatement(table string, cols []string) string {
	var b strings.Builder
	b.WriteString("COPY ")
	b.WriteString(Ident(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Ident(c))
	}
	b.WriteString(") FROM STDIN WITH (FORMAT csv)")
	return b.String()
}

// Ident quotes a single identifier for safe interpolation
func Ident(name string) string { return pgx.Identifier{name}.Sanitize() }

// adapters for pgx to our tiny Row/Rows/CommandTag

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rows struct{ r pgx.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { x.r.Close() }
func (x rows) Columns() []string {
	f := x.r.FieldDescriptions()
	out := make([]string, len(f))
	for i := range f {
		out[i] = f[i].Name
	}
	return out
}

type tag struct{ t pgconn.CommandTag }

func (t tag) String() string      { return t.t.String() }
func (t tag) RowsAffected() int64 { return t.t.RowsAffected() }
