package module

import (
	"strings"
	"time"

	"ghloader/internal/platform/config"
	"ghloader/internal/platform/validate"
	"ghloader/internal/services/ingest/repo"
	"ghloader/internal/services/ingest/service"
)

// Load strategies
const (
	StrategyCopy       = "copy"
	StrategyRows       = "rows"
	StrategyClickhouse = "clickhouse"
)

// Options holds configuration settings for the ingest module
type Options struct {
	DataDir     string        `env:"DATA_DIR" validate:"required"`
	BaseURL     string        `env:"BASE_URL" validate:"required,url"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT_SECONDS"`

	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT"`
	ExpandTimeout time.Duration `env:"EXPAND_TIMEOUT"`
	LoadTimeout   time.Duration `env:"LOAD_TIMEOUT"`

	QueueFetch  int `env:"QUEUE_FETCH" validate:"min=1,max=1000"`
	QueueExpand int `env:"QUEUE_EXPAND" validate:"min=1,max=1000"`
	QueueLoad   int `env:"QUEUE_LOAD" validate:"min=1,max=100"`

	LoadStrategy string `env:"LOAD_STRATEGY" validate:"oneof=copy rows clickhouse"`
	RowBatch     int    `env:"ROW_BATCH" validate:"min=1"`
	SanitizeTool string `env:"SANITIZE_TOOL"`

	KeepRaw          bool `env:"KEEP_RAW"`
	KeepCSV          bool `env:"KEEP_CSV"`
	FailOnTableError bool `env:"FAIL_ON_TABLE_ERROR"`
	CreateSchema     bool `env:"CREATE_SCHEMA"`
	BuildIndexes     bool `env:"BUILD_INDEXES"`
	DayLease         bool `env:"DAY_LEASE"`

	StatusAddr     string   `env:"STATUS_ADDR" validate:"omitempty,hostname_port"`
	CORSOrigins    []string `env:"CORS_ORIGINS" validate:"omitempty,dive,url"`
	PushgatewayURL string   `env:"PUSHGATEWAY_URL" validate:"omitempty,url"`
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_INGEST_")
	return Options{
		DataDir:     c.MayPath("DATA_DIR", "data"),
		BaseURL:     c.MayString("BASE_URL", "https://data.gharchive.org"),
		HTTPTimeout: time.Duration(c.MayInt("HTTP_TIMEOUT_SECONDS", 0)) * time.Second,

		FetchTimeout:  c.MayDuration("FETCH_TIMEOUT", 0),
		ExpandTimeout: c.MayDuration("EXPAND_TIMEOUT", 0),
		LoadTimeout:   c.MayDuration("LOAD_TIMEOUT", 0),

		QueueFetch:  c.MayInt("QUEUE_FETCH", service.DefaultQueueFetch),
		QueueExpand: c.MayInt("QUEUE_EXPAND", service.DefaultQueueExpand),
		QueueLoad:   c.MayInt("QUEUE_LOAD", service.DefaultQueueLoad),

		LoadStrategy: c.MayString("LOAD_STRATEGY", StrategyCopy),
		RowBatch:     c.MayInt("ROW_BATCH", repo.DefaultRowBatch),
		SanitizeTool: c.MayString("SANITIZE_TOOL", ""),

		KeepRaw:          c.MayBool("KEEP_RAW", false),
		KeepCSV:          c.MayBool("KEEP_CSV", false),
		FailOnTableError: c.MayBool("FAIL_ON_TABLE_ERROR", false),
		CreateSchema:     c.MayBool("CREATE_SCHEMA", true),
		BuildIndexes:     c.MayBool("BUILD_INDEXES", true),
		DayLease:         c.MayBool("DAY_LEASE", false),

		StatusAddr:     c.MayString("STATUS_ADDR", ""),
		CORSOrigins:    splitList(c.MayString("CORS_ORIGINS", "")),
		PushgatewayURL: c.MayString("PUSHGATEWAY_URL", ""),
	}
}

// splitList reads a comma separated setting, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports the first invalid option as a Validation error naming its key
func (o Options) Validate() error { return validate.Struct(o) }
