package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"ghloader/internal/services/ingest/domain"
)

// Queue names, in pipeline order
const (
	QueueFetchExpand     = "fetch_expand"
	QueueExpandNormalize = "expand_normalize"
	QueueNormalizeLoad   = "normalize_load"
)

// Metrics is the prometheus view of the pipeline
// Every collector lives in its own registry so several services never collide
type Metrics struct {
	reg *prometheus.Registry

	lines      *prometheus.CounterVec // ghloader_lines_total
	buckets    *prometheus.CounterVec // ghloader_buckets_total
	stageDur   *prometheus.SummaryVec // ghloader_stage_duration_seconds
	tableLoads *prometheus.CounterVec // ghloader_table_loads_total
	rowsLoaded *prometheus.CounterVec // ghloader_rows_loaded_total
	nulRetries *prometheus.CounterVec // ghloader_nul_retries_total
	days       *prometheus.CounterVec // ghloader_days_total
	runs       *prometheus.CounterVec // ghloader_runs_total
}

// newMetrics registers every collector; queue gauges read their values from queues at scrape time
func newMetrics(queues func(name string) (length, capacity int)) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghloader_lines_total",
			Help: "Raw archive lines by outcome (emitted, duplicate, malformed, unknown).",
		}, []string{"outcome"}),
		buckets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghloader_buckets_total",
			Help: "Hour buckets finished per stage.",
		}, []string{"stage"}),
		stageDur: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "ghloader_stage_duration_seconds",
			Help:       "Time spent per bucket (fetch, expand, normalize) or per day (load).",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"stage"}),
		tableLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghloader_table_loads_total",
			Help: "Per table load results by status (ok, failed, partial).",
		}, []string{"table", "status"}),
		rowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghloader_rows_loaded_total",
			Help: "Rows committed per table.",
		}, []string{"table"}),
		nulRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghloader_nul_retries_total",
			Help: "Bulk loads retried after stripping NUL bytes, by result (recovered, failed).",
		}, []string{"table", "result"}),
		days: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghloader_days_total",
			Help: "Days handed to the loader by result (loaded, failed, lease_held).",
		}, []string{"result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghloader_runs_total",
			Help: "Finished runs by status (ok, failed).",
		}, []string{"status"}),
	}
	m.reg.MustRegister(m.lines, m.buckets, m.stageDur, m.tableLoads, m.rowsLoaded, m.nulRetries, m.days, m.runs)

	for _, q := range []string{QueueFetchExpand, QueueExpandNormalize, QueueNormalizeLoad} {
		m.reg.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name:        "ghloader_queue_length",
				Help:        "Items waiting in a hand-off queue.",
				ConstLabels: prometheus.Labels{"queue": q},
			}, func() float64 { n, _ := queues(q); return float64(n) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name:        "ghloader_queue_capacity",
				Help:        "Capacity of a hand-off queue, zero while no run is active.",
				ConstLabels: prometheus.Labels{"queue": q},
			}, func() float64 { _, c := queues(q); return float64(c) }),
		)
	}
	return m
}

// Registry is the gatherer behind /metrics and the end of run push
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Push sends the registry to a Pushgateway under job, grouped by run id
func (m *Metrics) Push(ctx context.Context, gatewayURL, job, runID string) error {
	if gatewayURL == "" {
		return fmt.Errorf("metrics: gateway URL is required")
	}
	p := push.New(gatewayURL, job).Gatherer(m.reg)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	return p.PushContext(ctx)
}

func (m *Metrics) countLines(c domain.Counters) {
	m.lines.WithLabelValues("emitted").Add(float64(c.Emitted))
	m.lines.WithLabelValues("duplicate").Add(float64(c.Duplicates))
	m.lines.WithLabelValues("malformed").Add(float64(c.Malformed))
	m.lines.WithLabelValues("unknown").Add(float64(c.Unknown))
}

func (m *Metrics) stageDone(stage string, elapsed time.Duration) {
	m.buckets.WithLabelValues(stage).Inc()
	m.stageDur.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) dayLoaded(res domain.DayLoad, elapsed time.Duration) {
	m.stageDur.WithLabelValues("load").Observe(elapsed.Seconds())
	switch {
	case res.LeaseHeld:
		m.days.WithLabelValues("lease_held").Inc()
		return
	case res.Failed():
		m.days.WithLabelValues("failed").Inc()
	default:
		m.days.WithLabelValues("loaded").Inc()
	}
	for _, t := range res.Tables {
		status := "ok"
		switch {
		case t.Partial:
			status = "partial"
		case t.Err != "":
			status = "failed"
		}
		m.tableLoads.WithLabelValues(t.Table, status).Inc()
		if t.Err == "" || t.Partial {
			m.rowsLoaded.WithLabelValues(t.Table).Add(float64(t.Rows))
		}
		if t.Attempts > 1 {
			result := "failed"
			if t.Recovered {
				result = "recovered"
			}
			m.nulRetries.WithLabelValues(t.Table, result).Inc()
		}
	}
}

func (m *Metrics) runFinished(err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.runs.WithLabelValues(status).Inc()
}
