// Package ch provides a clickhouse client built on clickhouse-go's native protocol
package ch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ghloader/internal/platform/logger"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL        string
	ClientName string
	ClientTag  string
	LogSQL     bool
}

// Batch is the subset of driver.Batch used for inserts
type Batch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// session is the connection surface CH depends on
type session interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Prepare(ctx context.Context, query string) (Batch, error)
	Ping(ctx context.Context) error
	Close() error
}

// nativeSession adapts driver.Conn to session
type nativeSession struct{ driver.Conn }

func (n nativeSession) Prepare(ctx context.Context, query string) (Batch, error) {
	return n.PrepareBatch(ctx, query)
}

// CH is a clickhouse client
type CH struct {
	s   session
	log logger.Logger
	sql bool
}

var dial = func(opts *clickhouse.Options) (session, error) {
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	return nativeSession{conn}, nil
}

// Open parses the DSN, stamps client info and verifies connectivity
func Open(ctx context.Context, cfg Config, log logger.Logger) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch: parse dsn: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.ClientName, cfg.ClientTag)
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}

	s, err := dial(opts)
	if err != nil {
		return nil, fmt.Errorf("ch: open: %w", err)
	}
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ch: ping: %w", err)
	}
	return &CH{s: s, log: log.With().Str("component", "ch").Logger(), sql: cfg.LogSQL}, nil
}

// Exec runs a statement that returns no rows (DDL, mutations)
func (c *CH) Exec(ctx context.Context, query string, args ...any) error {
	c.trace(query, 0)
	return c.s.Exec(ctx, query, args...)
}

// Query runs a query and returns driver rows
func (c *CH) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	c.trace(query, 0)
	return c.s.Query(ctx, query, args...)
}

// Insert appends rows to a single batch for table and sends it
// An empty rows slice is a no-op
func (c *CH) Insert(ctx context.Context, table string, cols []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	query := InsertStatement(table, cols)
	b, err := c.s.Prepare(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("ch: prepare %s: %w", table, err)
	}
	for i, r := range rows {
		if err := b.Append(r...); err != nil {
			_ = b.Abort()
			return 0, fmt.Errorf("ch: append %s row %d: %w", table, i, err)
		}
	}
	if err := b.Send(); err != nil {
		return 0, fmt.Errorf("ch: send %s: %w", table, err)
	}
	c.trace(query, len(rows))
	return int64(len(rows)), nil
}

// Ping verifies connectivity
func (c *CH) Ping(ctx context.Context) error { return c.s.Ping(ctx) }

// Close closes resources
func (c *CH) Close() error { return c.s.Close() }

func (c *CH) trace(query string, n int) {
	if !c.sql {
		return
	}
	c.log.Debug().Int("rows", n).Str("sql", strings.Join(strings.Fields(query), " ")).Msg("ch query")
}

// InsertStatement renders the batch insert statement for table and cols
func InsertStatement(table string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdent(c)
	}
	return "INSERT INTO " + QuoteIdent(table) + " (" + strings.Join(quoted, ", ") + ")"
}

// QuoteIdent backquotes a clickhouse identifier
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
