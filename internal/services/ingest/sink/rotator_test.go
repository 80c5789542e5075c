package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"ghloader/internal/services/ingest/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return recs
}

func TestRotatorLifecycle(t *testing.T) {
	dir := t.TempDir()
	r := NewRotator(dir)
	if err := r.WriteRow(domain.TableDeletes, domain.Row{"1", "b", "branch", nil}); err == nil {
		t.Fatalf("write without open day must fail")
	}
	if err := r.Open("2024-03-01"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Open("2024-02-29"); err == nil {
		t.Fatalf("double open must fail")
	}
	if day, ok := r.Active(); !ok || day != "2024-03-01" {
		t.Fatalf("Active = %s %v", day, ok)
	}
	rows := []domain.Row{
		{"1", "main", "branch", nil},
		{"2", "line\nbreak, \"quoted\"", "tag", "user"},
	}
	for _, row := range rows {
		if err := r.WriteRow(domain.TableDeletes, row); err != nil {
			t.Fatalf("WriteRow: %v", err)
		}
	}
	if err := r.WriteRow(domain.TableDeletes, domain.Row{"short"}); err == nil {
		t.Fatalf("width mismatch must fail")
	}
	if err := r.WriteRow("nope", domain.Row{}); err == nil {
		t.Fatalf("unknown table must fail")
	}

	b, err := r.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if b.Day != "2024-03-01" || len(b.Files) != len(domain.Tables) || b.Rows[domain.TableDeletes] != 2 || b.Rows[domain.TableEvents] != 0 {
		t.Fatalf("batch = %+v", b)
	}
	if b.Files[domain.TableDeletes] != filepath.Join(dir, "deletes-2024-03-01.csv") {
		t.Fatalf("file name = %s", b.Files[domain.TableDeletes])
	}
	recs := readCSV(t, b.Files[domain.TableDeletes])
	if len(recs) != 2 || recs[0][3] != "" || recs[1][1] != "line\nbreak, \"quoted\"" {
		t.Fatalf("records = %q", recs)
	}
	if err := r.WriteRow(domain.TableDeletes, rows[0]); err == nil {
		t.Fatalf("write after close must fail")
	}
	if _, err := r.Close(); err == nil {
		t.Fatalf("double close must fail")
	}
}

func TestRotatorAbortRemovesFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRotator(dir)
	if err := r.Open("2024-03-01"); err != nil {
		t.Fatal(err)
	}
	r.Abort()
	left, _ := os.ReadDir(dir)
	if len(left) != 0 {
		t.Fatalf("abort left %d files", len(left))
	}
	if _, ok := r.Active(); ok {
		t.Fatalf("no day should be active after abort")
	}
}
