package main

import (
	"context"

	"taskdata/internal/core/version"
	"taskdata/internal/modkit"
	"taskdata/internal/modkit/module"
	"taskdata/internal/platform/config"
	"taskdata/internal/platform/logger"
	"taskdata/internal/platform/store"
	"taskdata/internal/services/ingest/domain"
	ingestmod "taskdata/internal/services/ingest/module"
	"taskdata/internal/services/ingest/repo"
)

// enqueue stores msg in the inbox the worker drains, creating the schema when asked to
func enqueue(ctx context.Context, msg domain.ContentMessage) error {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	l := logger.Named("decode")

	st, err := store.Open(ctx, store.Config{
		AppName: name + "/" + version.Info(name).Version,
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    2,
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(context.Background()) }()

	if root.Prefix("CORE_INGEST_").MayBool("MIGRATE", true) {
		if err := repo.Migrate(ctx, st.PG); err != nil {
			return err
		}
	}

	m := ingestmod.New(modkit.FromStore(st, root, nil), ingestmod.Options{})
	ports := module.MustPortsOf[ingestmod.Ports](m)
	inserted, err := ports.Inbox.Enqueue(ctx, msg)
	if err != nil {
		return err
	}
	if !inserted {
		l.Warn().Str("message_id", msg.MessageID).Msg("message id already in inbox; not stored again")
	}
	return nil
}
