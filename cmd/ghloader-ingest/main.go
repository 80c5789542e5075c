package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghloader/internal/modkit"
	"ghloader/internal/platform/config"
	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
	phttp "ghloader/internal/platform/net/http"
	"ghloader/internal/platform/net/middleware"
	"ghloader/internal/platform/store"
	ptime "ghloader/internal/platform/time"
	"ghloader/internal/platform/validate"
	ingestmod "ghloader/internal/services/ingest/module"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

// runArgs are the command line inputs
type runArgs struct {
	Start string `json:"start" validate:"required,day"`
	End   string `json:"end" validate:"required,day"`
}

func main() {
	os.Exit(run())
}

// run wires the module and returns the process exit code
func run() int {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()
	logger.Init(logger.FromEnv())
	l := logger.Named("main")

	var (
		fStart      = flag.String("start", "", "first UTC day to load YYYY-MM-DD")
		fEnd        = flag.String("end", "", "last UTC day to load YYYY-MM-DD inclusive")
		fSchemaOnly = flag.Bool("schema-only", false, "create the tables and exit")
		fSummary    = flag.Bool("summary", false, "print a per day load summary when the run ends")
	)
	flag.Parse()

	root := config.New()
	opts := ingestmod.FromConfig(root)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, storeConfig(root, opts.LoadStrategy), store.WithLogger(*l))
	if err != nil {
		l.Error().Err(err).Msg("store.Open failed")
		return 1
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	mod, err := ingestmod.New(modkit.Deps{Log: *l, Cfg: root, PG: st.PG, CH: st.CH}, opts)
	if err != nil {
		l.Error().Err(err).Msg("ingest module")
		if perr.IsCode(err, perr.ErrorCodeValidation) {
			return 2
		}
		return 1
	}
	ports := modkit.MustPortsOf[ingestmod.Ports](mod)

	if *fSchemaOnly {
		if err := ports.Schema.CreateTables(ctx); err != nil {
			l.Error().Err(err).Msg("create tables")
			return 1
		}
		l.Info().Msg("schema ready")
		return 0
	}

	args := runArgs{Start: *fStart, End: *fEnd}
	if err := validate.Struct(args); err != nil {
		l.Error().Err(err).Msg("bad flags")
		flag.Usage()
		return 2
	}
	start, _ := ptime.ParseDay(args.Start)
	end, _ := ptime.ParseDay(args.End)

	if opts.StatusAddr != "" {
		srv := phttp.NewServer(opts.StatusAddr, func(m *chi.Mux) { m.Use(middleware.Defaults()...) })
		mod.MountRoutes(srv.Router())
		go func() {
			if err := srv.Run(ctx); err != nil {
				l.Error().Err(err).Msg("status server stopped")
			}
		}()
	}

	rep, err := ports.Runner.Run(ctx, start, end)
	if opts.PushgatewayURL != "" {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if pushErr := ports.Metrics.Push(pctx, opts.PushgatewayURL, "ghloader_ingest", rep.RunID); pushErr != nil {
			l.Warn().Err(pushErr).Msg("metrics push failed")
		}
		cancel()
	}
	if *fSummary {
		printSummary(os.Stdout, rep)
	}
	switch {
	case errors.Is(err, context.Canceled):
		l.Warn().Msg("run interrupted")
		return 130
	case err != nil:
		l.Error().Err(err).Msg("ingest run failed")
		return 1
	}
	return 0
}

// storeConfig enables the backends the load strategy writes to
// postgres comes from SERVICE_PGSQL_DBURL or the discrete HOST, PORT, NAME, USER and PASSWORD keys
func storeConfig(root config.Conf, strategy string) store.Config {
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	pgURL := pgCfg.MayString("DBURL", "")
	if pgURL == "" && pgCfg.Has("HOST") {
		pgURL = store.PGURL(
			pgCfg.MayString("HOST", "localhost"),
			pgCfg.MayInt("PORT", 5432),
			pgCfg.MayString("NAME", "github_archive"),
			pgCfg.MayString("USER", ""),
			pgCfg.MayString("PASSWORD", ""),
			pgCfg.MayString("SSLMODE", ""),
		)
	}
	useCH := strategy == ingestmod.StrategyClickhouse

	return store.Config{
		AppName: "ghloader-ingest",
		PG: store.PGConfig{
			Enabled:     !useCH && pgURL != "",
			URL:         pgURL,
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    useCH,
			URL:        chCfg.MayString("DBURL", ""),
			LogSQL:     chCfg.MayBool("LOG_SQL", false),
			ClientName: "ghloader",
			ClientTag:  "ingest",
		},
	}
}
