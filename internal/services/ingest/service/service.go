// Package service contains ingest workflows
package service

import (
	"time"

	"taskdata/internal/core/taskdata"
	"taskdata/internal/modkit"
	"taskdata/internal/modkit/repokit"
	"taskdata/internal/platform/logger"
	"taskdata/internal/platform/metrics"
	"taskdata/internal/services/ingest/domain"
	"taskdata/internal/services/ingest/repo"
)

// Service defines the ingest service contract
type Service interface {
	domain.WorkerPort
	domain.InboxPort
	domain.StatsPort
}

// Config carries runtime knobs for the worker
type Config struct {
	Concurrency      int
	QueueTakeBatch   int
	LeaseFor         time.Duration
	PollEvery        time.Duration
	RetryBaseMs      int
	MaxAttempts      int
	StatementTimeout time.Duration
	DryRun           bool
}

// Svc implements the ingest service
type Svc struct {
	Repo    repo.Repo
	binder  repokit.Binder[repo.Repo]
	db      repokit.TxRunner
	deps    modkit.Deps
	config  Config
	decoder domain.Decoder
	sink    domain.ValueSink
	metrics *metrics.Ingest
	log     *logger.Logger
}

// Option customizes a Svc after construction
type Option func(*Svc)

// WithSink sets the value sink written inside the document transaction
func WithSink(s domain.ValueSink) Option { return func(x *Svc) { x.sink = s } }

// WithBinder replaces the Postgres binder
func WithBinder(b repokit.Binder[repo.Repo]) Option { return func(x *Svc) { x.binder = b } }

// New constructs an ingest service around dec
func New(deps modkit.Deps, cfg Config, dec domain.Decoder, opts ...Option) *Svc {
	if deps.PG == nil {
		panic("ingest.Service requires a non nil TxRunner")
	}
	if dec == nil {
		dec = taskdata.New(taskdata.Limits{}, nil)
	}
	cfg = withDefaults(cfg)

	db := repokit.WithBeginHooks(deps.PG, repokit.StatementTimeout(cfg.StatementTimeout))
	s := &Svc{
		binder:  repo.NewPG(),
		db:      db,
		deps:    deps,
		config:  cfg,
		decoder: dec,
		log:     logger.Named("ingest"),
	}
	if deps.Metrics != nil {
		s.metrics = metrics.NewIngest(deps.Metrics)
	}
	for _, o := range opts {
		o(s)
	}
	s.Repo = repokit.MustBind(s.binder, deps.PG)
	return s
}

// Config returns the effective configuration after defaults
func (s *Svc) Config() Config { return s.config }

func withDefaults(cfg Config) Config {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueueTakeBatch <= 0 {
		cfg.QueueTakeBatch = 1
	}
	if cfg.LeaseFor <= 0 {
		cfg.LeaseFor = 2 * time.Minute
	}
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 500 * time.Millisecond
	}
	if cfg.RetryBaseMs <= 0 {
		cfg.RetryBaseMs = 500
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return cfg
}
