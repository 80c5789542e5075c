package repo

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"sync"

	"ghloader/internal/platform/store"

	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB is an in-memory store.TxRunner that rejects CSV payloads containing NUL like Postgres does
// failCall fails the nth CopyRows call of a table (1-based)
type fakeDB struct {
	mu        sync.Mutex
	execs     []string
	copies    map[string][][]string
	typed     map[string][][]any
	attempts  map[string]int
	rollbacks int
	commits   int
	failTable map[string]error
	failCall  map[string]int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		copies:    map[string][][]string{},
		typed:     map[string][][]any{},
		attempts:  map[string]int{},
		failTable: map[string]error{},
		failCall:  map[string]int{},
	}
}

type fakeTx struct {
	db     *fakeDB
	copies map[string][][]string
	typed  map[string][][]any
}

func (d *fakeDB) Tx(ctx context.Context, fn func(q store.Querier) error) error {
	tx := &fakeTx{db: d, copies: map[string][][]string{}, typed: map[string][][]any{}}
	if err := fn(tx); err != nil {
		d.mu.Lock()
		d.rollbacks++
		d.mu.Unlock()
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commits++
	for k, v := range tx.copies {
		d.copies[k] = append(d.copies[k], v...)
	}
	for k, v := range tx.typed {
		d.typed[k] = append(d.typed[k], v...)
	}
	return nil
}

func (d *fakeDB) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execs = append(d.execs, sql)
	return fakeTag{}, nil
}

func (d *fakeDB) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not implemented")
}

func (d *fakeDB) QueryRow(context.Context, string, ...any) store.Row { return nil }

func (d *fakeDB) CopyCSV(ctx context.Context, table string, cols []string, r io.Reader) (int64, error) {
	return 0, errors.New("copy outside tx")
}

func (d *fakeDB) CopyRows(ctx context.Context, table string, cols []string, rows [][]any) (int64, error) {
	return 0, errors.New("copy outside tx")
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *fakeTx) CopyCSV(_ context.Context, table string, cols []string, r io.Reader) (int64, error) {
	t.db.mu.Lock()
	t.db.attempts[table]++
	ferr := t.db.failTable[table]
	t.db.mu.Unlock()
	if ferr != nil {
		return 0, ferr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if bytes.IndexByte(b, 0) >= 0 {
		return 0, &pgconn.PgError{Code: "22021", Message: "invalid byte sequence for encoding \"UTF8\": 0x00"}
	}
	recs, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		return 0, err
	}
	t.copies[table] = append(t.copies[table], recs...)
	return int64(len(recs)), nil
}

func (t *fakeTx) CopyRows(_ context.Context, table string, cols []string, rows [][]any) (int64, error) {
	t.db.mu.Lock()
	t.db.attempts[table]++
	ferr := t.db.failTable[table]
	if n := t.db.failCall[table]; n > 0 && t.db.attempts[table] == n {
		ferr = errors.New("connection reset")
	}
	t.db.mu.Unlock()
	if ferr != nil {
		return 0, ferr
	}
	t.typed[table] = append(t.typed[table], rows...)
	return int64(len(rows)), nil
}

type fakeTag struct{}

func (fakeTag) String() string      { return "OK" }
func (fakeTag) RowsAffected() int64 { return 0 }

// fakeCH records DDL and inserts; failCall fails the nth Insert (1-based)
type fakeCH struct {
	execs    []string
	inserts  map[string][][]any
	calls    int
	failCall int
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCH) Insert(_ context.Context, table string, _ []string, rows [][]any) (int64, error) {
	f.calls++
	if f.calls == f.failCall {
		return 0, errors.New("connection reset")
	}
	if f.inserts == nil {
		f.inserts = map[string][][]any{}
	}
	f.inserts[table] = append(f.inserts[table], rows...)
	return int64(len(rows)), nil
}

func (f *fakeCH) Close() error { return nil }
