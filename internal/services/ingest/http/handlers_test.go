package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "ghloader/internal/platform/net/http"
	"ghloader/internal/platform/testkit"
	"ghloader/internal/services/ingest/domain"
	ingesthttp "ghloader/internal/services/ingest/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

type fixedStatus struct{ snap domain.Snapshot }

func (f fixedStatus) Snapshot() domain.Snapshot { return f.snap }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func serve(t *testing.T, d ingesthttp.Deps, path string, out any) int {
	t.Helper()
	m := chi.NewRouter()
	ingesthttp.Register(phttp.AdaptChi(m), d)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	env := struct {
		StatusCode int             `json:"status_code"`
		Data       json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
	}
	return rec.Code
}

func TestStatus(t *testing.T) {
	snap := domain.Snapshot{
		RunID:      "run-1",
		Start:      "2024-03-01",
		End:        "2024-03-02",
		Running:    true,
		LastBucket: map[string]string{"fetch": "2024-03-01-5"},
		Queues:     []domain.QueueStat{{Name: "fetch_expand", Len: 4, Cap: 10}},
		DaysLoaded: []string{"2024-03-02"},
		Counters:   domain.Counters{Lines: 10, Emitted: 8, Duplicates: 2},
	}
	var got domain.Snapshot
	if code := serve(t, ingesthttp.Deps{Status: fixedStatus{snap}}, "/status", &got); code != http.StatusOK {
		t.Fatalf("status code %d", code)
	}
	if got.RunID != "run-1" || !got.Running || got.LastBucket["fetch"] != "2024-03-01-5" {
		t.Fatalf("snapshot = %+v", got)
	}
	if len(got.Queues) != 1 || got.Queues[0].Len != 4 || got.Counters.Duplicates != 2 {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestStatusIdle(t *testing.T) {
	var got domain.Snapshot
	if code := serve(t, ingesthttp.Deps{}, "/status", &got); code != http.StatusOK || got.Running {
		t.Fatalf("idle status: %d %+v", code, got)
	}
}

func TestHealth(t *testing.T) {
	var got ingesthttp.HealthResponse
	d := ingesthttp.Deps{ServiceName: "ghloader-ingest", StartedAt: time.Now().Add(-time.Minute)}
	if code := serve(t, d, "/healthz", &got); code != http.StatusOK {
		t.Fatalf("code %d", code)
	}
	if !got.OK || got.Service != "ghloader-ingest" || got.Uptime < 59 || got.Build.Version != "dev" {
		t.Fatalf("health = %+v", got)
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		name   string
		pg, ch any
		want   string
	}{
		{"all ok", pinger{}, pinger{}, "ok"},
		{"ch disabled", pinger{}, nil, "ok"},
		{"pg down", pinger{err: errors.New("refused")}, nil, "fail"},
		{"not pingable", struct{}{}, nil, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got ingesthttp.ReadyResponse
			serve(t, ingesthttp.Deps{PG: tc.pg, CH: tc.ch}, "/ready", &got)
			if got.Status != tc.want || len(got.Checks) != 2 {
				t.Fatalf("ready = %+v", got)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "ghloader_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	m := chi.NewRouter()
	ingesthttp.Register(phttp.AdaptChi(m), ingesthttp.Deps{Metrics: reg})
	srv := httptest.NewServer(m)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer func() { _ = res.Body.Close() }()
	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	testkit.MustContain(t, string(body), "ghloader_test_total 3")
}

func TestMetricsNotMountedWithoutGatherer(t *testing.T) {
	m := chi.NewRouter()
	ingesthttp.Register(phttp.AdaptChi(m), ingesthttp.Deps{})
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}
