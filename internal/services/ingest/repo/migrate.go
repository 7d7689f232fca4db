package repo

import (
	"context"
	_ "embed"
	"strings"

	"taskdata/internal/modkit/repokit"
	perr "taskdata/internal/platform/errors"
)

//go:embed schema.sql
var schemaSQL string

// Statements returns the schema split into individual statements, in file order
func Statements() []string {
	var out []string
	for _, s := range strings.Split(schemaSQL, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Migrate applies the idempotent inbox and document schema
func Migrate(ctx context.Context, q repokit.Queryer) error {
	for i, stmt := range Statements() {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return perr.FromPostgresf(err, "migrate statement %d", i)
		}
	}
	return nil
}
