// Package module wires the ingest service and exposes its ports
package module

import (
	"net/http"

	"taskdata/internal/modkit"
	phttp "taskdata/internal/platform/net/http"
	"taskdata/internal/services/ingest/repo"
	"taskdata/internal/services/ingest/service"
)

// Module defines the ingest module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
	svc   *service.Svc
	sink  *repo.CHValues
}

// New constructs the ingest module with its ports
func New(deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)

	if overrides.Concurrency != 0 {
		opts.Concurrency = overrides.Concurrency
	}
	if overrides.QueueTakeBatch != 0 {
		opts.QueueTakeBatch = overrides.QueueTakeBatch
	}
	if overrides.MaxAttempts != 0 {
		opts.MaxAttempts = overrides.MaxAttempts
	}
	if overrides.DryRun {
		opts.DryRun = true
	}

	var svcOpts []service.Option
	m := &Module{deps: deps, opts: opts}
	if deps.CH != nil {
		m.sink = repo.NewCHValues(deps.CH, opts.ValuesTable, opts.ValuesBatch)
		svcOpts = append(svcOpts, service.WithSink(m.sink))
	}

	m.svc = service.New(deps, service.Config{
		Concurrency:      opts.Concurrency,
		QueueTakeBatch:   opts.QueueTakeBatch,
		LeaseFor:         opts.LeaseFor,
		PollEvery:        opts.PollEvery,
		RetryBaseMs:      int(opts.RetryBase.Milliseconds()),
		MaxAttempts:      opts.MaxAttempts,
		StatementTimeout: opts.StatementTimeout,
		DryRun:           opts.DryRun,
	}, opts.Decode.Decoder(), svcOpts...)

	m.ports = Ports{
		Worker: m.svc,
		Inbox:  m.svc,
		Stats:  m.svc,
	}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "ingest" }

// Ports returns the module ports (Worker, Inbox, Stats)
func (m *Module) Ports() any { return m.ports }

// Options returns the effective options after config and overrides
func (m *Module) Options() Options { return m.opts }

// Sink returns the ClickHouse value sink, nil when ClickHouse is not configured
func (m *Module) Sink() *repo.CHValues { return m.sink }

// MountRoutes mounts the read-only inbox stats under /ingest on the ops listener
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.Build(
		modkit.WithName(m.Name()),
		modkit.WithPrefix("/ingest"),
		modkit.WithRegister(func(r phttp.Router) {
			r.Get("/stats", m.stats)
		}),
	).Mount(r)
}

// stats godoc
// @Summary Content inbox and document counters
// @Tags ingest
// @Produce json
// @Success 200 {object} phttp.Envelope{data=domain.Stats}
// @Router /ingest/stats [get]
func (m *Module) stats(w http.ResponseWriter, r *http.Request) {
	st, err := m.ports.Stats.Stats(r.Context())
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	phttp.RespondOK(w, r, st)
}
