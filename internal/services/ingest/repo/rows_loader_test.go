package repo

import (
	"context"
	"reflect"
	"testing"
	"time"

	"ghloader/internal/services/ingest/domain"
)

func TestRowsLoaderTypesAndBatches(t *testing.T) {
	db := newFakeDB()
	b := writeDay(t, t.TempDir(), "2024-03-01", map[string][]domain.Row{
		domain.TableEvents: {event("1", "a"), event("2", "b\x00"), event("3", "c")},
	})

	res, err := NewRowsLoader(NewPGAppender(db), 2, Policy{}).Load(context.Background(), b)
	if err != nil || res.Failed() {
		t.Fatalf("Load: %v %+v", err, res)
	}
	got := db.typed[domain.TableEvents]
	if len(got) != 3 || db.attempts[domain.TableEvents] != 2 {
		t.Fatalf("rows=%d batches=%d", len(got), db.attempts[domain.TableEvents])
	}
	if db.commits != 1 {
		t.Fatalf("both batches of a table must share one tx, commits=%d", db.commits)
	}
	want := []any{"2", "WatchEvent", int64(1), "b", int64(2), "o/r", nil, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), nil, nil}
	if !reflect.DeepEqual(got[1], want) {
		t.Fatalf("row = %#v", got[1])
	}
}

func TestRowsLoaderClickHouseArrays(t *testing.T) {
	ch := &fakeCH{}
	pr := make(domain.Row, 0)
	tb, _ := domain.TableByName(domain.TablePullRequests)
	for _, c := range tb.Columns {
		switch c.Name {
		case "id":
			pr = append(pr, int64(9))
		case "labels":
			pr = append(pr, []string{"bug"})
		default:
			pr = append(pr, nil)
		}
	}
	b := writeDay(t, t.TempDir(), "2024-03-01", map[string][]domain.Row{domain.TablePullRequests: {pr}})

	if _, err := NewRowsLoader(NewCHAppender(ch), 0, Policy{}).Load(context.Background(), b); err != nil {
		t.Fatalf("Load: %v", err)
	}
	rows := ch.inserts[domain.TablePullRequests]
	if len(rows) != 1 {
		t.Fatalf("inserted %d rows", len(rows))
	}
	for i, c := range tb.Columns {
		v := rows[0][i]
		switch c.Name {
		case "labels":
			if !reflect.DeepEqual(v, []string{"bug"}) {
				t.Fatalf("labels = %#v", v)
			}
		case "assignee_ids", "requested_reviewer_ids":
			if !reflect.DeepEqual(v, []int64{}) {
				t.Fatalf("%s should be an empty array, got %#v", c.Name, v)
			}
		case "requested_teams":
			if !reflect.DeepEqual(v, []string{}) {
				t.Fatalf("requested_teams should be an empty array, got %#v", v)
			}
		}
	}
}

func TestRowsLoaderFailedBatchRollsBackTable(t *testing.T) {
	db := newFakeDB()
	db.failCall[domain.TableEvents] = 2
	b := writeDay(t, t.TempDir(), "2024-03-01", map[string][]domain.Row{
		domain.TableEvents:  {event("1", "a"), event("2", "b"), event("3", "c"), event("4", "d")},
		domain.TableDeletes: {{"1", "main", "branch", nil}},
	})

	res, err := NewRowsLoader(NewPGAppender(db), 2, Policy{KeepCSV: true}).Load(context.Background(), b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !res.Failed() {
		t.Fatalf("expected a failed table: %+v", res)
	}
	for _, tl := range res.Tables {
		switch tl.Table {
		case domain.TableEvents:
			if tl.Err == "" || tl.Rows != 0 || tl.Partial {
				t.Fatalf("events = %+v", tl)
			}
		case domain.TableDeletes:
			if tl.Err != "" || tl.Rows != 1 {
				t.Fatalf("deletes = %+v", tl)
			}
		}
	}
	if n := len(db.typed[domain.TableEvents]); n != 0 {
		t.Fatalf("%d event rows committed from a failed table", n)
	}
	if db.rollbacks != 1 {
		t.Fatalf("rollbacks = %d", db.rollbacks)
	}
}

func TestRowsLoaderClickHouseFailureIsPartial(t *testing.T) {
	ch := &fakeCH{failCall: 2}
	b := writeDay(t, t.TempDir(), "2024-03-01", map[string][]domain.Row{
		domain.TableEvents: {event("1", "a"), event("2", "b"), event("3", "c"), event("4", "d")},
	})

	res, err := NewRowsLoader(NewCHAppender(ch), 2, Policy{KeepCSV: true}).Load(context.Background(), b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var ev domain.TableLoad
	for _, tl := range res.Tables {
		if tl.Table == domain.TableEvents {
			ev = tl
		}
	}
	if ev.Err == "" || !ev.Partial || ev.Rows != 2 {
		t.Fatalf("events = %+v", ev)
	}
	if len(ch.inserts[domain.TableEvents]) != 2 {
		t.Fatalf("inserted = %d", len(ch.inserts[domain.TableEvents]))
	}
}
