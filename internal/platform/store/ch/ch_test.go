package ch

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"ghloader/internal/platform/testkit"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"
)

type fakeBatch struct {
	rows    [][]any
	sent    bool
	aborted bool
	failAt  int
}

func (b *fakeBatch) Append(v ...any) error {
	if b.failAt > 0 && len(b.rows)+1 == b.failAt {
		return errors.New("type mismatch")
	}
	b.rows = append(b.rows, v)
	return nil
}
func (b *fakeBatch) Send() error  { b.sent = true; return nil }
func (b *fakeBatch) Abort() error { b.aborted = true; return nil }

type fakeSession struct {
	pingErr  error
	closed   bool
	execs    []string
	prepared []string
	batch    *fakeBatch
}

func (f *fakeSession) Exec(_ context.Context, q string, _ ...any) error {
	f.execs = append(f.execs, q)
	return nil
}
func (f *fakeSession) Query(context.Context, string, ...any) (driver.Rows, error) { return nil, nil }
func (f *fakeSession) Prepare(_ context.Context, q string) (Batch, error) {
	f.prepared = append(f.prepared, q)
	return f.batch, nil
}
func (f *fakeSession) Ping(context.Context) error { return f.pingErr }
func (f *fakeSession) Close() error               { f.closed = true; return nil }

func openFake(t *testing.T, fs *fakeSession) *CH {
	t.Helper()
	testkit.Serial(t)
	var seen *clickhouse.Options
	testkit.Swap(t, &dial, func(o *clickhouse.Options) (session, error) {
		seen = o
		return fs, nil
	})
	c, err := Open(context.Background(), Config{URL: "clickhouse://default:@localhost:9000/gh", ClientTag: "ingest", LogSQL: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if seen == nil || len(seen.ClientInfo.Products) == 0 || seen.ClientInfo.Products[0].Name != "ghloader" {
		t.Fatalf("client info not stamped: %+v", seen)
	}
	return c
}

func TestOpen_BadDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{URL: "::::"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected dsn error")
	}
}

func TestOpen_PingFailureCloses(t *testing.T) {
	testkit.Serial(t)
	fs := &fakeSession{pingErr: errors.New("refused")}
	testkit.Swap(t, &dial, func(*clickhouse.Options) (session, error) { return fs, nil })

	if _, err := Open(context.Background(), Config{URL: "clickhouse://localhost:9000"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected ping error")
	}
	if !fs.closed {
		t.Fatalf("session not closed after failed ping")
	}
}

func TestInsertBatches(t *testing.T) {
	fs := &fakeSession{batch: &fakeBatch{}}
	c := openFake(t, fs)

	rows := [][]any{{int64(1), "main"}, {int64(2), nil}}
	n, err := c.Insert(context.Background(), "deletes", []string{"event_id", "ref"}, rows)
	if err != nil || n != 2 {
		t.Fatalf("Insert = %d, %v", n, err)
	}
	if fs.prepared[0] != "INSERT INTO `deletes` (`event_id`, `ref`)" {
		t.Fatalf("prepared = %q", fs.prepared[0])
	}
	if !fs.batch.sent || !reflect.DeepEqual(fs.batch.rows, rows) {
		t.Fatalf("batch mismatch: %+v", fs.batch)
	}

	if n, err := c.Insert(context.Background(), "deletes", nil, nil); n != 0 || err != nil || len(fs.prepared) != 1 {
		t.Fatalf("empty insert should not prepare")
	}
}

func TestInsertAbortsOnAppendError(t *testing.T) {
	fs := &fakeSession{batch: &fakeBatch{failAt: 2}}
	c := openFake(t, fs)

	_, err := c.Insert(context.Background(), "events", []string{"id"}, [][]any{{int64(1)}, {"x"}})
	if err == nil || !fs.batch.aborted || fs.batch.sent {
		t.Fatalf("expected abort without send, err=%v batch=%+v", err, fs.batch)
	}
}

func TestExecAndClose(t *testing.T) {
	fs := &fakeSession{}
	c := openFake(t, fs)
	if err := c.Exec(context.Background(), "CREATE TABLE IF NOT EXISTS `events` (id Int64) ENGINE = MergeTree ORDER BY tuple()"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(fs.execs) != 1 {
		t.Fatalf("exec not forwarded")
	}
	if err := c.Close(); err != nil || !fs.closed {
		t.Fatalf("Close not forwarded")
	}
}

func TestQuoteIdent(t *testing.T) {
	if QuoteIdent("a`b") != "`a``b`" {
		t.Fatalf("QuoteIdent = %s", QuoteIdent("a`b"))
	}
}
