package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"taskdata/internal/core/container"
	"taskdata/internal/modkit/repokit"
	perr "taskdata/internal/platform/errors"
	"taskdata/internal/platform/logger"
	"taskdata/internal/platform/metrics"
	pstrings "taskdata/internal/platform/strings"
	"taskdata/internal/platform/validate"
	"taskdata/internal/services/ingest/domain"
)

// Run starts Concurrency inbox loops and blocks until ctx ends or a loop fails
func (s *Svc) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, s.config.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < s.config.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			errCh <- s.loop(ctx, worker)
		}(i)
	}
	s.log.Info().
		Int("concurrency", s.config.Concurrency).
		Dur("lease_for", s.config.LeaseFor).
		Int("max_attempts", s.config.MaxAttempts).
		Msg("ingest worker started")

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
	}
	cancel()
	wg.Wait()
	return err
}

func (s *Svc) loop(ctx context.Context, worker int) error {
	t := time.NewTicker(s.config.PollEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			n, err := s.Drain(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Error().Err(err).Int("worker", worker).Msg("inbox batch failed")
				continue
			}
			if n > 0 {
				s.log.Debug().Int("worker", worker).Int("messages", n).Msg("inbox batch handled")
			}
		}
	}
}

// Drain leases one batch and handles every message in it, returning how many were leased.
// A message whose disposition could not be written is logged and skipped so the rest of
// the batch still runs; those errors come back joined. Shutdown stops the batch early.
func (s *Svc) Drain(ctx context.Context) (int, error) {
	msgs, err := s.Repo.Lease(ctx, s.config.QueueTakeBatch, s.config.LeaseFor)
	if err != nil {
		return 0, err
	}
	var errs []error
	for _, m := range msgs {
		err := s.Handle(ctx, m)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return len(msgs), ctx.Err()
		}
		logger.C(logger.WithMessage(ctx, m.MessageID, m.EndpointID)).
			Error().Err(err).Int64("id", m.ID).Msg("disposition not recorded; lease will expire")
		errs = append(errs, err)
	}
	return len(msgs), errors.Join(errs...)
}

// Handle runs one leased message to a disposition. A message interrupted by
// shutdown is left alone; its lease expires and another worker picks it up.
func (s *Svc) Handle(ctx context.Context, m domain.ContentMessage) error {
	s.metrics.Inflight(1)
	defer s.metrics.Inflight(-1)

	ctx = logger.WithMessage(ctx, m.MessageID, m.EndpointID)
	outcome, err := s.process(ctx, m)
	if err == nil {
		s.metrics.Outcome(outcome)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.handleError(ctx, m, err)
}

// process decodes and persists m; the returned error has not been dispositioned yet
func (s *Svc) process(ctx context.Context, m domain.ContentMessage) (string, error) {
	if err := validate.Struct(m); err != nil {
		return "", perr.WithOp(err, "ingest")
	}
	if m.TechnicalMessageType != domain.TechTaskDataZip {
		if s.config.DryRun {
			return metrics.OutcomeSkipped, nil
		}
		logger.C(ctx).Debug().Str("type", m.TechnicalMessageType).Msg("message type not decoded")
		return metrics.OutcomeSkipped, s.Repo.Ack(ctx, m.ID)
	}

	start := time.Now()
	docs, err := s.decoder.Decode(m.Envelope(), m.Content)
	if err != nil {
		return "", err
	}
	took := time.Since(start)
	s.metrics.Decoded(len(m.Content), took, len(docs), countEntries(docs))

	if s.config.DryRun {
		logger.C(ctx).Info().Int("documents", len(docs)).Dur("took", took).Msg("dry run decode")
		return metrics.OutcomeDecoded, nil
	}

	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := repokit.MustBind(s.binder, q)
		inserted, err := r.InsertDocuments(ctx, docs)
		if err != nil {
			return err
		}
		if s.sink != nil && inserted > 0 {
			if err := s.sink.WriteValues(ctx, docs); err != nil {
				return err
			}
		}
		return r.Ack(ctx, m.ID)
	})
	if err != nil {
		return "", err
	}
	logger.C(ctx).Info().
		Int("documents", len(docs)).
		Dur("took", took).
		Msg("archive decoded")
	return metrics.OutcomeDecoded, nil
}

// handleError maps err to reject, retry or fail on the message row
func (s *Svc) handleError(ctx context.Context, m domain.ContentMessage, err error) error {
	log := logger.C(ctx)
	msg := pstrings.Truncate(err.Error(), 500)

	if perr.Terminal(err) {
		code := perr.CodeOf(err).String()
		s.metrics.DecodeError(code)
		s.metrics.Outcome(metrics.OutcomeRejected)
		log.Warn().Err(err).Str("code", code).Msg("message rejected")
		return s.Repo.Reject(ctx, m.ID, code, msg)
	}

	if m.Attempts+1 >= s.config.MaxAttempts {
		s.metrics.Outcome(metrics.OutcomeFailed)
		log.Error().Err(err).Int("attempts", m.Attempts+1).Msg("message failed, attempts exhausted")
		return s.Repo.Fail(ctx, m.ID, msg)
	}

	back := backoffFor(m.Attempts, s.config.RetryBaseMs)
	s.metrics.Outcome(metrics.OutcomeRetried)
	log.Warn().Err(err).Dur("backoff", back).Int("attempts", m.Attempts+1).Msg("message failed scheduled retry")
	return s.Repo.Retry(ctx, m.ID, back, msg)
}

func countEntries(docs []container.Document) int {
	n := 0
	for _, d := range docs {
		n += len(d.Entries)
	}
	return n
}

func backoffFor(attempts int, baseMs int) time.Duration {
	if baseMs <= 0 {
		baseMs = 500
	}
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 20 {
		attempts = 20
	}
	ms := min(int64(baseMs)<<uint(attempts), int64(10*time.Minute/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}
