// Package service runs the four stage ingest pipeline: fetch, expand, normalize and load
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
	ptime "ghloader/internal/platform/time"
	"ghloader/internal/services/ingest/domain"
	"ghloader/internal/services/ingest/guardrails"
	"ghloader/internal/services/ingest/normalize"
	"ghloader/internal/services/ingest/planner"
)

// Queue capacities between the stages
const (
	DefaultQueueFetch  = 10
	DefaultQueueExpand = 10
	DefaultQueueLoad   = 3
)

// Config holds the pipeline tuning
type Config struct {
	QueueFetch   int
	QueueExpand  int
	QueueLoad    int
	Timeouts     guardrails.Timeouts
	CreateSchema bool
	BuildIndexes bool
}

// Normalizer is the normalize stage seam
type Normalizer interface {
	Process(ctx context.Context, st *normalize.State, path string, w domain.RowWriter) (domain.Counters, error)
}

// Rotator is the daily sink set seam
type Rotator interface {
	domain.RowWriter
	Open(day string) error
	Close() (domain.DayBatch, error)
	Abort()
}

// Service wires the stages together; one Run at a time
type Service struct {
	Fetch  domain.Fetcher
	Expand domain.Expander
	Norm   Normalizer
	Sink   Rotator
	Load   domain.Loader
	Schema domain.SchemaRepo
	Cfg    Config
	Status *Status

	newRunID func() string
}

// New constructs the pipeline service
func New(f domain.Fetcher, e domain.Expander, n Normalizer, r Rotator, l domain.Loader, schema domain.SchemaRepo, cfg Config) *Service {
	if f == nil || e == nil || n == nil || r == nil || l == nil {
		panic("ingest.Service requires fetcher, expander, normalizer, rotator and loader")
	}
	if cfg.QueueFetch <= 0 {
		cfg.QueueFetch = DefaultQueueFetch
	}
	if cfg.QueueExpand <= 0 {
		cfg.QueueExpand = DefaultQueueExpand
	}
	if cfg.QueueLoad <= 0 {
		cfg.QueueLoad = DefaultQueueLoad
	}
	return &Service{
		Fetch: f, Expand: e, Norm: n, Sink: r, Load: l, Schema: schema,
		Cfg:      cfg,
		Status:   NewStatus(),
		newRunID: uuid.NewString,
	}
}

// bucket is a hand-off item: the hour and the artifact the previous stage produced
type bucket struct {
	hour domain.HourRef
	path string
}

// Run implements domain.RunnerPort
// Every stage stops after handling its sentinel: the oldest bucket, or for the loader the oldest day.
// A fatal stage error cancels the others and is returned with the partial report.
func (s *Service) Run(ctx context.Context, start, end time.Time) (domain.RunReport, error) {
	plan, err := planner.New(start, end)
	if err != nil {
		return domain.RunReport{}, err
	}
	rep := domain.RunReport{RunID: s.newRunID(), Start: plan.Start(), End: plan.End()}
	began := time.Now()
	ctx = logger.WithRun(ctx, rep.RunID)
	log := logger.C(ctx)

	s.Status.begin(rep.RunID, ptime.FormatDay(plan.Start()), ptime.FormatDay(plan.End()))
	log.Info().Str("start", ptime.FormatDay(plan.Start())).Str("end", ptime.FormatDay(plan.End())).
		Int("buckets", plan.Len()).Msg("ingest run starting")

	if s.Cfg.CreateSchema && s.Schema != nil {
		if err := s.Schema.CreateTables(ctx); err != nil {
			s.Status.finish(err)
			return rep, err
		}
	}

	fetched := make(chan bucket, s.Cfg.QueueFetch)
	expanded := make(chan bucket, s.Cfg.QueueExpand)
	days := make(chan domain.DayBatch, s.Cfg.QueueLoad)
	s.Status.watch(watched(QueueFetchExpand, fetched), watched(QueueExpandNormalize, expanded), watched(QueueNormalizeLoad, days))

	oldest, oldestDay := plan.Oldest(), plan.OldestDay()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.fetchStage(logger.WithStage(gctx, "fetch"), plan, fetched)
	})
	g.Go(func() error {
		return s.expandStage(logger.WithStage(gctx, "expand"), oldest, fetched, expanded)
	})
	g.Go(func() error {
		n, c, err := s.normalizeStage(logger.WithStage(gctx, "normalize"), oldest, expanded, days)
		rep.Buckets, rep.Counters = n, c
		return err
	})
	g.Go(func() error {
		loads, err := s.loadStage(logger.WithStage(gctx, "load"), oldestDay, days)
		rep.Days = loads
		return err
	})

	err = g.Wait()
	rep.Elapsed = time.Since(began)
	s.Status.finish(err)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", rep.Elapsed).Msg("ingest run failed")
		return rep, err
	}
	log.Info().Int("buckets", rep.Buckets).Int64("emitted", rep.Counters.Emitted).
		Int64("duplicates", rep.Counters.Duplicates).Int64("malformed", rep.Counters.Malformed).
		Int64("unknown", rep.Counters.Unknown).Int("days", len(rep.Days)).Dur("elapsed", rep.Elapsed).
		Msg("ingest run finished")
	return rep, nil
}

func (s *Service) fetchStage(ctx context.Context, plan planner.Plan, out chan<- bucket) error {
	for h := range plan.Buckets() {
		began := time.Now()
		fctx, cancel := guardrails.ForFetch(ctx, s.Cfg.Timeouts)
		path, err := s.Fetch.Fetch(fctx, h)
		cancel()
		if err != nil {
			return perr.WithOp(perr.WrapIf(err, perr.ErrorCodeFetch, "fetch "+h.String()), "fetch")
		}
		s.Status.bucketDone("fetch", h, time.Since(began))
		if err := send(ctx, out, bucket{hour: h, path: path}); err != nil {
			return err
		}
		if h == plan.Oldest() {
			return nil
		}
	}
	return nil
}

func (s *Service) expandStage(ctx context.Context, oldest domain.HourRef, in <-chan bucket, out chan<- bucket) error {
	for {
		b, err := recv(ctx, in)
		if err != nil {
			return err
		}
		began := time.Now()
		ectx, cancel := guardrails.ForExpand(ctx, s.Cfg.Timeouts)
		path, err := s.Expand.Expand(ectx, b.hour)
		cancel()
		if err != nil {
			return perr.WithOp(perr.WrapIf(err, perr.ErrorCodeExpand, "expand "+b.hour.String()), "expand")
		}
		s.Status.bucketDone("expand", b.hour, time.Since(began))
		if err := send(ctx, out, bucket{hour: b.hour, path: path}); err != nil {
			return err
		}
		if b.hour == oldest {
			return nil
		}
	}
}

// normalizeStage owns the dedup state and the daily sink set
// Hour 23 opens the day's files (traversal reaches it first); hour 0 closes them and hands the day over
func (s *Service) normalizeStage(ctx context.Context, oldest domain.HourRef, in <-chan bucket, out chan<- domain.DayBatch) (int, domain.Counters, error) {
	log := logger.C(ctx)
	st := normalize.NewState()
	var total domain.Counters
	n := 0
	open := false
	defer func() {
		if open {
			s.Sink.Abort()
		}
	}()

	for {
		b, err := recv(ctx, in)
		if err != nil {
			return n, total, err
		}
		h := b.hour
		if h.LastOfDay() {
			if st.Enter(h.DayStart()) {
				log.Info().Str("day", h.DayString()).Msg("entered an earlier month, dedup state cleared")
			}
			if err := s.Sink.Open(h.DayString()); err != nil {
				return n, total, err
			}
			open = true
		}

		began := time.Now()
		c, err := s.Norm.Process(ctx, st, b.path, s.Sink)
		total.Add(c)
		s.Status.count(c)
		if err != nil {
			return n, total, perr.WithOp(err, "normalize "+h.String())
		}
		n++
		s.Status.bucketDone("normalize", h, time.Since(began))
		log.Debug().Str("bucket", h.String()).Int64("lines", c.Lines).Int64("emitted", c.Emitted).Msg("bucket normalized")

		if h.FirstOfDay() {
			batch, err := s.Sink.Close()
			open = false
			if err != nil {
				return n, total, err
			}
			if err := send(ctx, out, batch); err != nil {
				return n, total, err
			}
		}
		if h == oldest {
			return n, total, nil
		}
	}
}

func (s *Service) loadStage(ctx context.Context, oldestDay string, in <-chan domain.DayBatch) ([]domain.DayLoad, error) {
	log := logger.C(ctx)
	var loads []domain.DayLoad
	for {
		b, err := recv(ctx, in)
		if err != nil {
			return loads, err
		}
		began := time.Now()
		lctx, cancel := guardrails.ForLoad(ctx, s.Cfg.Timeouts)
		res, err := s.Load.Load(lctx, b)
		cancel()
		loads = append(loads, res)
		if err != nil {
			return loads, perr.WithOp(perr.WrapIf(err, perr.ErrorCodeLoad, "load "+b.Day), "load")
		}
		s.Status.dayLoaded(res, time.Since(began))
		log.Info().Str("day", b.Day).Bool("partial", res.Failed()).Bool("lease_held", res.LeaseHeld).Msg("day loaded")
		if b.Day == oldestDay {
			break
		}
	}
	if s.Cfg.BuildIndexes && s.Schema != nil {
		log.Info().Msg("building indexes")
		if err := s.Schema.BuildIndexes(ctx); err != nil {
			return loads, err
		}
	}
	return loads, nil
}
