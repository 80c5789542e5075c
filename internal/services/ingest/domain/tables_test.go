package domain

import "testing"

func TestCatalogueIsConsistent(t *testing.T) {
	if len(Tables) != 15 {
		t.Fatalf("expected 15 tables, got %d", len(Tables))
	}
	seen := map[string]bool{}
	for _, tb := range Tables {
		if seen[tb.Name] {
			t.Fatalf("duplicate table %s", tb.Name)
		}
		seen[tb.Name] = true

		names := map[string]bool{}
		for _, c := range tb.Columns {
			if c.Name == "" || names[c.Name] {
				t.Fatalf("%s: empty or duplicate column %q", tb.Name, c.Name)
			}
			names[c.Name] = true
		}
		if !names[tb.Key] {
			t.Fatalf("%s: key %q is not a column", tb.Name, tb.Key)
		}
	}
}

func TestTableByName(t *testing.T) {
	tb, ok := TableByName(TableIssueComments)
	if !ok {
		t.Fatalf("issue_comments missing")
	}
	want := []string{"id", "issue_id", "user_id", "user_login", "user_type", "user_site_admin", "created_at", "updated_at", "author_association", "body", "app_slug"}
	got := tb.ColumnNames()
	if len(got) != len(want) {
		t.Fatalf("columns = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %d = %s, want %s", i, got[i], want[i])
		}
	}
	if _, ok := TableByName("nope"); ok {
		t.Fatalf("unexpected table")
	}
	if TableNames()[0] != TableEvents {
		t.Fatalf("events must load first")
	}
}

func TestOutcomeAndCounters(t *testing.T) {
	if Emitted.String() != "emitted" || Duplicate.String() != "duplicate" || Skipped.String() != "skipped" {
		t.Fatalf("outcome strings mismatch")
	}
	var c Counters
	c.Add(Counters{Lines: 3, Emitted: 1, Duplicates: 1, Malformed: 1})
	c.Add(Counters{Lines: 1, Unknown: 1})
	if c.Lines != 4 || c.Unknown != 1 || c.Emitted != 1 {
		t.Fatalf("counters = %+v", c)
	}
	if (DayLoad{Tables: []TableLoad{{Table: "a"}}}).Failed() {
		t.Fatalf("no error means not failed")
	}
	if !(DayLoad{Tables: []TableLoad{{Table: "a", Err: "x"}}}).Failed() {
		t.Fatalf("error must mark the day failed")
	}
}
