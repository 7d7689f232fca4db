package service

import (
	"context"

	"taskdata/internal/platform/validate"
	"taskdata/internal/services/ingest/domain"
)

// Enqueue validates m and stores it in the inbox
func (s *Svc) Enqueue(ctx context.Context, m domain.ContentMessage) (bool, error) {
	if err := validate.Struct(m); err != nil {
		return false, err
	}
	return s.Repo.Enqueue(ctx, m)
}

// Stats reports inbox and document counts
func (s *Svc) Stats(ctx context.Context) (domain.Stats, error) {
	return s.Repo.Stats(ctx)
}
