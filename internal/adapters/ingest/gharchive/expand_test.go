package gharchive

import (
	"context"
	"os"
	"testing"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/testkit"
)

func TestExpandDecompressesAndRemovesSource(t *testing.T) {
	dir := t.TempDir()
	h := HourRef{2024, 1, 2, 3}
	testkit.WriteGzip(t, h.GzPath(dir), `{"id":"1"}`, `{"id":"2"}`)

	p, err := NewExpander(dir).Expand(context.Background(), h)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "{\"id\":\"1\"}\n{\"id\":\"2\"}\n" {
		t.Fatalf("content = %q", b)
	}
	if isFile(h.GzPath(dir)) {
		t.Fatalf("compressed artifact should be removed")
	}
}

func TestExpandIsNoOpWhenExpanded(t *testing.T) {
	dir := t.TempDir()
	h := HourRef{2024, 1, 2, 3}
	if err := os.WriteFile(h.JSONPath(dir), []byte("kept\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		p, err := NewExpander(dir).Expand(context.Background(), h)
		if err != nil || p != h.JSONPath(dir) {
			t.Fatalf("Expand #%d = %q, %v", i, p, err)
		}
	}
	b, _ := os.ReadFile(h.JSONPath(dir))
	if string(b) != "kept\n" {
		t.Fatalf("existing file was rewritten: %q", b)
	}
}

func TestExpandCorruptKeepsSource(t *testing.T) {
	dir := t.TempDir()
	h := HourRef{2024, 1, 2, 3}
	if err := os.WriteFile(h.GzPath(dir), []byte("not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewExpander(dir).Expand(context.Background(), h)
	if !perr.IsCode(err, perr.ErrorCodeExpand) {
		t.Fatalf("expected expand error, got %v", err)
	}
	if !isFile(h.GzPath(dir)) {
		t.Fatalf("source must survive a failed expand")
	}
	if isFile(h.JSONPath(dir)) || isFile(h.JSONPath(dir)+".part") {
		t.Fatalf("no partial output may remain")
	}
}

func TestExpandMissingSource(t *testing.T) {
	_, err := NewExpander(t.TempDir()).Expand(context.Background(), HourRef{2024, 1, 2, 3})
	if !perr.IsCode(err, perr.ErrorCodeExpand) {
		t.Fatalf("expected expand error, got %v", err)
	}
}
