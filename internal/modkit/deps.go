// Package modkit provides module wiring and core deps
package modkit

import (
	"taskdata/internal/modkit/repokit"
	"taskdata/internal/platform/config"
	"taskdata/internal/platform/logger"
	"taskdata/internal/platform/store"

	"github.com/prometheus/client_golang/prometheus"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	// CH is optional; nil disables the value sink
	CH store.Clickhouse
	// Metrics is optional; nil registers nothing
	Metrics prometheus.Registerer
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for optional stores
func (d Deps) ZeroOK() bool { return true }

// FromStore copies the opened store seams into Deps
func FromStore(st *store.Store, cfg config.Conf, reg prometheus.Registerer) Deps {
	d := Deps{Cfg: cfg, Metrics: reg}
	if st == nil {
		return d
	}
	d.Log = st.Log
	d.PG = st.PG
	d.CH = st.CH
	return d
}
