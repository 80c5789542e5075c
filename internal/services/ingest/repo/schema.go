// Package repo holds the storage side of ingest: DDL, bulk loaders, appenders and sanitizers
package repo

import (
	"context"
	"fmt"
	"strings"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/store"
	"ghloader/internal/platform/store/ch"
	"ghloader/internal/services/ingest/domain"
)

func pgType(t domain.ColumnType) string {
	switch t {
	case domain.BigInt:
		return "bigint"
	case domain.Bool:
		return "boolean"
	case domain.Timestamp:
		return "timestamptz"
	case domain.BigIntArray:
		return "bigint[]"
	case domain.TextArray:
		return "text[]"
	default:
		return "text"
	}
}

func chType(t domain.ColumnType) string {
	switch t {
	case domain.BigInt:
		return "Nullable(Int64)"
	case domain.Bool:
		return "Nullable(Bool)"
	case domain.Timestamp:
		return "Nullable(DateTime64(3, 'UTC'))"
	case domain.BigIntArray:
		return "Array(Int64)"
	case domain.TextArray:
		return "Array(String)"
	default:
		return "Nullable(String)"
	}
}

// CreateTableSQL renders the Postgres DDL of t
func CreateTableSQL(t domain.Table) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = store.Ident(c.Name) + " " + pgType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", store.Ident(t.Name), strings.Join(defs, ", "))
}

// CreateIndexSQL renders the non-unique key index of t
// Entity rows may repeat across month scopes, so no uniqueness is enforced
func CreateIndexSQL(t domain.Table) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		store.Ident("ix_"+t.Name+"_"+t.Key), store.Ident(t.Name), store.Ident(t.Key))
}

// CreateCHTableSQL renders the ClickHouse DDL of t
func CreateCHTableSQL(t domain.Table) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = ch.QuoteIdent(c.Name) + " " + chType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = MergeTree ORDER BY tuple()",
		ch.QuoteIdent(t.Name), strings.Join(defs, ", "))
}

// Schema manages Postgres tables and indexes
type Schema struct {
	db store.RowQuerier
}

// NewSchema binds the schema manager to db
func NewSchema(db store.RowQuerier) *Schema { return &Schema{db: db} }

// CreateTables creates every catalogue table that does not exist yet
func (s *Schema) CreateTables(ctx context.Context) error {
	return perr.FromPostgresf(store.ExecAll(ctx, s.db, ddl(CreateTableSQL)...), "create tables")
}

// BuildIndexes adds the key index to every catalogue table
func (s *Schema) BuildIndexes(ctx context.Context) error {
	return perr.FromPostgresf(store.ExecAll(ctx, s.db, ddl(CreateIndexSQL)...), "build indexes")
}

// ddl renders one statement per catalogue table, in load order
func ddl(render func(domain.Table) string) []string {
	out := make([]string, len(domain.Tables))
	for i, t := range domain.Tables {
		out[i] = render(t)
	}
	return out
}

// CHSchema manages ClickHouse tables; MergeTree ORDER BY tuple() needs no extra indexes
type CHSchema struct {
	ch store.Clickhouse
}

// NewCHSchema binds the schema manager to a ClickHouse seam
func NewCHSchema(c store.Clickhouse) *CHSchema { return &CHSchema{ch: c} }

// CreateTables creates every catalogue table in ClickHouse
func (s *CHSchema) CreateTables(ctx context.Context) error {
	for _, t := range domain.Tables {
		if err := s.ch.Exec(ctx, CreateCHTableSQL(t)); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "clickhouse: create table %s", t.Name)
		}
	}
	return nil
}

// BuildIndexes is a no-op for ClickHouse
func (s *CHSchema) BuildIndexes(context.Context) error { return nil }

// Schemas fans DDL out to several backends in order
type Schemas []domain.SchemaRepo

// CreateTables runs CreateTables on every member
func (ss Schemas) CreateTables(ctx context.Context) error {
	for _, s := range ss {
		if err := s.CreateTables(ctx); err != nil {
			return err
		}
	}
	return nil
}

// BuildIndexes runs BuildIndexes on every member
func (ss Schemas) BuildIndexes(ctx context.Context) error {
	for _, s := range ss {
		if err := s.BuildIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
