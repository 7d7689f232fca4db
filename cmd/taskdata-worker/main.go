// Command taskdata-worker drains the TaskData content inbox and serves the ops listener
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskdata/internal/core/version"
	"taskdata/internal/modkit"
	"taskdata/internal/modkit/module"
	"taskdata/internal/modkit/repokit"
	"taskdata/internal/modkit/swaggerkit"
	"taskdata/internal/platform/config"
	"taskdata/internal/platform/logger"
	"taskdata/internal/platform/metrics"
	phttp "taskdata/internal/platform/net/http"
	"taskdata/internal/platform/net/middleware"
	"taskdata/internal/platform/store"
	ingestmod "taskdata/internal/services/ingest/module"
	"taskdata/internal/services/ingest/repo"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"
)

const name = "taskdata-worker"

// @title taskdata worker ops
// @version 1.0
// @description Operational endpoints of the TaskData decode worker
// @BasePath /

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fConc := fs.Int("concurrency", 0, "worker loops (0: CORE_INGEST_WORKER_CONCURRENCY)")
	fBatch := fs.Int("batch", 0, "messages leased per poll (0: CORE_INGEST_QUEUE_TAKE_BATCH)")
	fDryRun := fs.Bool("dryrun", false, "decode without persisting or acknowledging messages")
	fVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *fVersion {
		fmt.Println(version.Info(name))
		return nil
	}

	logger.Init(logger.FromEnv())
	l := logger.Named("worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	opsCfg := root.Prefix("OPS_")
	build := version.Info(name)

	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(ctx, store.Config{
		AppName: name + "/" + build.Version,
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
			Role:    "worker",
			Tag:     build.Version,
		},
	}, store.WithLogger(*l))
	if err != nil {
		return fmt.Errorf("store open: %w", err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	reg := metrics.NewRegistry()
	m := ingestmod.New(modkit.FromStore(st, root, reg), ingestmod.Options{
		Concurrency:    *fConc,
		QueueTakeBatch: *fBatch,
		DryRun:         *fDryRun,
	})

	if root.Prefix("CORE_INGEST_").MayBool("MIGRATE", true) {
		if err := repo.Migrate(ctx, st.PG); err != nil {
			return err
		}
		if sink := m.Sink(); sink != nil {
			if err := sink.EnsureTable(ctx); err != nil {
				return err
			}
		}
	}

	cors := middleware.CORSOptions{AllowedOrigins: opsCfg.MayCSV("CORS_ORIGINS", nil)}
	slow := opsCfg.MayDuration("SLOW_REQUEST", time.Second)
	srv := phttp.NewServer(opsCfg, func(mux *chi.Mux) {
		mux.Use(middleware.Defaults(cors, slow)...)
	})
	phttp.MountOps(srv.Router(), phttp.OpsOptions{
		Ready:    st.Guard,
		Metrics:  metrics.Handler(reg),
		Profiler: opsCfg.MayBool("PROFILER", false),
		Version:  build.Version,
	})
	m.MountRoutes(srv.Router())
	swaggerkit.Mount(srv.Router(), opsCfg.MayBool("SWAGGER", false))

	ports := module.MustPortsOf[ingestmod.Ports](m)
	opts := m.Options()
	l.Info().
		Str("version", build.Version).
		Str("ops_addr", srv.Addr()).
		Int("concurrency", opts.Concurrency).
		Bool("dryrun", opts.DryRun).
		Bool("value_sink", m.Sink() != nil).
		Msg("starting")

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Run(ctx) }()
	go func() { errCh <- ports.Worker.Run(ctx) }()

	err = <-errCh
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	l.Info().Msg("stopped")
	return nil
}
