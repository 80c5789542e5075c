package net_test

import (
	"errors"
	"net/http"
	"testing"

	perr "ghloader/internal/platform/errors"
	pnet "ghloader/internal/platform/net"
)

func TestOK(t *testing.T) {
	status, w := pnet.OK(map[string]any{"x": 1}, "req-1")
	if status != http.StatusOK || w.StatusCode != http.StatusOK || w.Status != "OK" {
		t.Fatalf("bad ok envelope: %d %+v", status, w)
	}
	if w.RequestID != "req-1" || w.Error != "" {
		t.Fatalf("bad ok envelope: %+v", w)
	}
}

func TestError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"nil is ok", nil, http.StatusOK, ""},
		{"invalid range", perr.InvalidRangef("end before start"), http.StatusBadRequest, "invalid_range"},
		{"validation keeps field", perr.WithField(perr.Validationf("required"), "data_dir"), http.StatusBadRequest, "validation"},
		{"unavailable", perr.Unavailablef("pg down"), http.StatusServiceUnavailable, "unavailable"},
		{"foreign error", errors.New("boom"), http.StatusInternalServerError, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, w := pnet.Error(tc.err, "rid")
			if status != tc.status || w.StatusCode != tc.status {
				t.Fatalf("status got %d want %d", status, tc.status)
			}
			if w.Code != tc.code {
				t.Fatalf("code got %q want %q", w.Code, tc.code)
			}
		})
	}

	_, w := pnet.Error(perr.WithField(perr.Validationf("required"), "data_dir"), "")
	if w.Field != "data_dir" {
		t.Fatalf("field got %q", w.Field)
	}
}
