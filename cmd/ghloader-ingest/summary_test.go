package main

import (
	"bytes"
	"testing"
	"time"

	"ghloader/internal/platform/config"
	"ghloader/internal/platform/testkit"
	"ghloader/internal/services/ingest/domain"
)

func TestPrintSummary(t *testing.T) {
	rep := domain.RunReport{
		RunID:    "run-1",
		Buckets:  24,
		Counters: domain.Counters{Lines: 12, Emitted: 9, Duplicates: 2, Malformed: 1},
		Elapsed:  3 * time.Second,
		Days: []domain.DayLoad{{
			Day: "2024-03-01",
			Tables: []domain.TableLoad{
				{Table: "events", Rows: 9, Attempts: 2, Recovered: true},
				{Table: "issues", Attempts: 1, Err: "disk full"},
				{Table: "forks", Rows: 5000, Attempts: 1, Partial: true, Err: "reset"},
			},
		}},
	}
	var buf bytes.Buffer
	printSummary(&buf, rep)
	out := buf.String()

	for _, want := range []string{"run-1", "24 buckets", "EMITTED", "2024-03-01", "events", "true", "disk full", "PARTIAL", "5000"} {
		testkit.MustContain(t, out, want)
	}
}

func TestPrintSummaryNoDays(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, domain.RunReport{RunID: "r"})
	if bytes.Contains(buf.Bytes(), []byte("TABLE")) {
		t.Fatalf("day table printed without days:\n%s", buf.String())
	}
}

func TestStoreConfig(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "")
	t.Setenv("SERVICE_PGSQL_HOST", "db")
	t.Setenv("SERVICE_PGSQL_USER", "gh")
	t.Setenv("SERVICE_PGSQL_PASSWORD", "pw")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "clickhouse://ch:9000/gh")

	cfg := storeConfig(config.New(), "copy")
	if !cfg.PG.Enabled || cfg.CH.Enabled {
		t.Fatalf("copy should enable postgres only: %+v", cfg)
	}
	testkit.MustContain(t, cfg.PG.URL, "postgres://gh:pw@db:5432/github_archive")

	cfg = storeConfig(config.New(), "clickhouse")
	if cfg.PG.Enabled || !cfg.CH.Enabled || cfg.CH.URL != "clickhouse://ch:9000/gh" {
		t.Fatalf("clickhouse should enable clickhouse only: %+v", cfg)
	}
}
