// Package module implements the ingest service module
package module

import (
	"path/filepath"
	"time"

	"ghloader/internal/adapters/ingest/gharchive"
	"ghloader/internal/modkit"
	perr "ghloader/internal/platform/errors"
	phttp "ghloader/internal/platform/net/http"
	"ghloader/internal/platform/net/middleware"
	"ghloader/internal/services/ingest/domain"
	"ghloader/internal/services/ingest/guardrails"
	ingesthttp "ghloader/internal/services/ingest/http"
	"ghloader/internal/services/ingest/normalize"
	"ghloader/internal/services/ingest/repo"
	"ghloader/internal/services/ingest/service"
	"ghloader/internal/services/ingest/sink"
)

// Ports exposed by the ingest module
type Ports struct {
	Runner  domain.RunnerPort
	Status  domain.StatusSource
	Schema  domain.SchemaRepo
	Metrics *service.Metrics
}

// Module implements the ingest service module
type Module struct {
	deps    modkit.Deps
	opts    Options
	started time.Time
	ports   Ports
}

// New validates opts and wires the pipeline for the configured load strategy
func New(deps modkit.Deps, opts Options) (*Module, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	loader, schema, err := buildLoader(deps, opts)
	if err != nil {
		return nil, err
	}

	fopts := []gharchive.FetcherOption{gharchive.WithBaseURL(opts.BaseURL)}
	if opts.HTTPTimeout > 0 {
		fopts = append(fopts, gharchive.WithHTTPTimeout(opts.HTTPTimeout))
	}

	svc := service.New(
		gharchive.NewFetcher(opts.DataDir, fopts...),
		gharchive.NewExpander(opts.DataDir),
		normalize.New(normalize.WithKeepRaw(opts.KeepRaw)),
		sink.NewRotator(filepath.Join(opts.DataDir, "csv")),
		loader,
		schema,
		service.Config{
			QueueFetch:  opts.QueueFetch,
			QueueExpand: opts.QueueExpand,
			QueueLoad:   opts.QueueLoad,
			Timeouts: guardrails.Timeouts{
				Fetch:  opts.FetchTimeout,
				Expand: opts.ExpandTimeout,
				Load:   opts.LoadTimeout,
			},
			CreateSchema: opts.CreateSchema,
			BuildIndexes: opts.BuildIndexes,
		},
	)

	m := &Module{deps: deps, opts: opts, started: time.Now()}
	m.ports = Ports{Runner: svc, Status: svc.Status, Schema: schema, Metrics: svc.Status.Metrics()}
	return m, nil
}

// buildLoader picks the loader and the schema owner for the strategy
func buildLoader(deps modkit.Deps, opts Options) (domain.Loader, repo.Schemas, error) {
	pol := repo.Policy{KeepCSV: opts.KeepCSV, FailOnTableError: opts.FailOnTableError}

	switch opts.LoadStrategy {
	case StrategyClickhouse:
		if deps.CH == nil {
			return nil, nil, perr.WithField(perr.Validationf("clickhouse strategy needs SERVICE_CLICKHOUSE_DBURL"), "LOAD_STRATEGY")
		}
		return repo.NewRowsLoader(repo.NewCHAppender(deps.CH), opts.RowBatch, pol), repo.Schemas{repo.NewCHSchema(deps.CH)}, nil
	case StrategyRows, StrategyCopy:
		if deps.PG == nil {
			return nil, nil, perr.WithField(perr.Validationf("%s strategy needs postgres", opts.LoadStrategy), "LOAD_STRATEGY")
		}
		schema := repo.Schemas{repo.NewSchema(deps.PG)}
		var l domain.Loader
		if opts.LoadStrategy == StrategyRows {
			l = repo.NewRowsLoader(repo.NewPGAppender(deps.PG), opts.RowBatch, pol)
		} else {
			l = repo.NewCopyLoader(deps.PG, repo.NewSanitizer(opts.SanitizeTool), pol)
		}
		if opts.DayLease {
			l = guardrails.WithDayLease(l, guardrails.NewDayLease(deps.PG))
		}
		return l, schema, nil
	default:
		return nil, nil, perr.WithField(perr.Validationf("unknown load strategy %q", opts.LoadStrategy), "LOAD_STRATEGY")
	}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "ingest" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Options returns the validated options the module was built with
func (m *Module) Options() Options { return m.opts }

// MountRoutes satisfies modkit.Module
// cross-origin reads are allowed only for CORS_ORIGINS
func (m *Module) MountRoutes(r phttp.Router) {
	if len(m.opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: m.opts.CORSOrigins}))
	}
	d := ingesthttp.Deps{
		ServiceName: "ghloader-ingest",
		StartedAt:   m.started,
		Status:      m.ports.Status,
		Metrics:     m.ports.Metrics.Registry(),
	}
	if m.deps.PG != nil {
		d.PG = m.deps.PG
	}
	if m.deps.CH != nil {
		d.CH = m.deps.CH
	}
	ingesthttp.Register(r, d)
}
