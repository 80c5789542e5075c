package module

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ghloader/internal/modkit"
	"ghloader/internal/platform/config"
	perr "ghloader/internal/platform/errors"
	phttp "ghloader/internal/platform/net/http"
	"ghloader/internal/platform/store"
	"ghloader/internal/services/ingest/guardrails"
	"ghloader/internal/services/ingest/repo"

	"github.com/go-chi/chi/v5"
)

// seams that are never called while wiring
type nopPG struct{ store.TxRunner }
type nopCH struct{ store.Clickhouse }

func validOpts(t *testing.T) Options {
	t.Helper()
	o := FromConfig(config.New())
	o.DataDir = t.TempDir()
	return o
}

func TestFromConfigDefaults(t *testing.T) {
	t.Setenv("CORE_INGEST_DATA_DIR", "")
	o := FromConfig(config.New())
	if o.DataDir != "data" || o.BaseURL != "https://data.gharchive.org" {
		t.Fatalf("paths = %q %q", o.DataDir, o.BaseURL)
	}
	if o.QueueFetch != 10 || o.QueueExpand != 10 || o.QueueLoad != 3 {
		t.Fatalf("queues = %d %d %d", o.QueueFetch, o.QueueExpand, o.QueueLoad)
	}
	if o.LoadStrategy != StrategyCopy || o.RowBatch != repo.DefaultRowBatch {
		t.Fatalf("strategy = %q batch = %d", o.LoadStrategy, o.RowBatch)
	}
	if !o.CreateSchema || !o.BuildIndexes || o.KeepRaw || o.KeepCSV || o.FailOnTableError {
		t.Fatalf("flags = %+v", o)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFromConfigOverrides(t *testing.T) {
	t.Setenv("CORE_INGEST_DATA_DIR", "/tmp/gh/")
	t.Setenv("CORE_INGEST_HTTP_TIMEOUT_SECONDS", "30")
	t.Setenv("CORE_INGEST_LOAD_TIMEOUT", "2m")
	t.Setenv("CORE_INGEST_QUEUE_LOAD", "5")
	t.Setenv("CORE_INGEST_LOAD_STRATEGY", "rows")
	t.Setenv("CORE_INGEST_KEEP_CSV", "true")
	t.Setenv("CORE_INGEST_STATUS_ADDR", ":9090")
	t.Setenv("CORE_INGEST_CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("CORE_INGEST_PUSHGATEWAY_URL", "http://pushgateway:9091")

	o := FromConfig(config.New())
	if o.DataDir != "/tmp/gh" || o.HTTPTimeout != 30*time.Second || o.LoadTimeout != 2*time.Minute {
		t.Fatalf("options = %+v", o)
	}
	if o.QueueLoad != 5 || o.LoadStrategy != StrategyRows || !o.KeepCSV || o.StatusAddr != ":9090" {
		t.Fatalf("options = %+v", o)
	}
	if len(o.CORSOrigins) != 2 || o.CORSOrigins[1] != "https://b.example.com" || o.PushgatewayURL != "http://pushgateway:9091" {
		t.Fatalf("cors = %v push = %q", o.CORSOrigins, o.PushgatewayURL)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("overrides should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Options)
		field string
	}{
		{"data dir", func(o *Options) { o.DataDir = "" }, "DATA_DIR"},
		{"base url", func(o *Options) { o.BaseURL = "not a url" }, "BASE_URL"},
		{"queue", func(o *Options) { o.QueueFetch = 0 }, "QUEUE_FETCH"},
		{"strategy", func(o *Options) { o.LoadStrategy = "sqlite" }, "LOAD_STRATEGY"},
		{"row batch", func(o *Options) { o.RowBatch = 0 }, "ROW_BATCH"},
		{"status addr", func(o *Options) { o.StatusAddr = "nope" }, "STATUS_ADDR"},
		{"pushgateway", func(o *Options) { o.PushgatewayURL = "gateway" }, "PUSHGATEWAY_URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := validOpts(t)
			tc.mut(&o)
			err := o.Validate()
			e, ok := perr.As(err)
			if !ok || e.Code() != perr.ErrorCodeValidation || e.Field() != tc.field {
				t.Fatalf("want validation error on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestNewPicksLoaderForStrategy(t *testing.T) {
	cases := []struct {
		strategy string
		deps     modkit.Deps
		wantErr  bool
	}{
		{StrategyCopy, modkit.Deps{PG: nopPG{}}, false},
		{StrategyRows, modkit.Deps{PG: nopPG{}}, false},
		{StrategyClickhouse, modkit.Deps{CH: nopCH{}}, false},
		{StrategyCopy, modkit.Deps{}, true},
		{StrategyClickhouse, modkit.Deps{PG: nopPG{}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.strategy, func(t *testing.T) {
			o := validOpts(t)
			o.LoadStrategy = tc.strategy
			m, err := New(tc.deps, o)
			if tc.wantErr {
				if !perr.IsCode(err, perr.ErrorCodeValidation) {
					t.Fatalf("want validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			p := modkit.MustPortsOf[Ports](m)
			if p.Runner == nil || p.Status == nil || p.Schema == nil {
				t.Fatalf("ports = %+v", p)
			}
			if m.Name() != "ingest" || m.Options().LoadStrategy != tc.strategy {
				t.Fatalf("module = %s %+v", m.Name(), m.Options())
			}
		})
	}
}

func TestBuildLoaderDayLease(t *testing.T) {
	o := validOpts(t)
	o.DayLease = true
	l, _, err := buildLoader(modkit.Deps{PG: nopPG{}}, o)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := l.(*guardrails.LeasedLoader); !ok {
		t.Fatalf("loader = %T, want the leased wrapper", l)
	}

	o.DayLease = false
	l, _, _ = buildLoader(modkit.Deps{PG: nopPG{}}, o)
	if _, ok := l.(*repo.CopyLoader); !ok {
		t.Fatalf("loader = %T, want the copy loader", l)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	o := validOpts(t)
	o.QueueLoad = 0
	if _, err := New(modkit.Deps{PG: nopPG{}}, o); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestMountRoutesServesStatus(t *testing.T) {
	m, err := New(modkit.Deps{PG: nopPG{}}, validOpts(t))
	if err != nil {
		t.Fatal(err)
	}
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	for _, path := range []string{"/healthz", "/status", "/metrics"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestMountRoutesCORS(t *testing.T) {
	o := validOpts(t)
	o.CORSOrigins = []string{"https://dash.example.com"}
	m, err := New(modkit.Deps{PG: nopPG{}}, o)
	if err != nil {
		t.Fatal(err)
	}
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://dash.example.com" {
		t.Fatalf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
