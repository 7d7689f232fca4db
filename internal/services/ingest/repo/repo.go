// Package repo provides the ingest repository implementation
package repo

import (
	"context"
	"time"

	"taskdata/internal/core/container"
	"taskdata/internal/core/timelog"
	"taskdata/internal/modkit/repokit"
	perr "taskdata/internal/platform/errors"
	"taskdata/internal/platform/store"
	"taskdata/internal/services/ingest/domain"
)

// Repo defines the ingest repository contract
type Repo interface {
	// Inbox writes from the messaging side
	Enqueue(ctx context.Context, m domain.ContentMessage) (bool, error)

	// Queue leasing for workers with best effort reservation semantics
	Lease(ctx context.Context, n int, leaseFor time.Duration) ([]domain.ContentMessage, error)

	// Queue completion: Ack deletes, Retry schedules another attempt,
	// Reject and Fail park the message with its error for inspection
	Ack(ctx context.Context, id int64) error
	Retry(ctx context.Context, id int64, backoff time.Duration, lastErr string) error
	Reject(ctx context.Context, id int64, code, reason string) error
	Fail(ctx context.Context, id int64, lastErr string) error

	// Document store
	InsertDocuments(ctx context.Context, docs []container.Document) (int, error)

	// Read side
	Stats(ctx context.Context) (domain.Stats, error)
}

type (
	// PG is a Postgres ingest repository
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres ingest repository
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Enqueue stores a content message unless its message id is already known
func (r *queries) Enqueue(ctx context.Context, m domain.ContentMessage) (bool, error) {
	const sql = `
		INSERT INTO content_inbox (
			message_id, endpoint_id, technical_message_type, sent_at,
			sender_id, receiver_id, file_name, content
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (message_id) DO NOTHING
	`
	tag, err := r.q.Exec(ctx, sql,
		m.MessageID, m.EndpointID, m.TechnicalMessageType, m.Timestamp.UTC(),
		m.SenderID, m.ReceiverID, m.FileName, m.Content,
	)
	if err != nil {
		return false, perr.FromPostgres(err, "enqueue content message")
	}
	return tag.RowsAffected() == 1, nil
}

// Lease reserves up to n due messages for leaseFor so concurrent workers skip them
func (r *queries) Lease(ctx context.Context, n int, leaseFor time.Duration) ([]domain.ContentMessage, error) {
	const sql = `
		WITH cte AS (
			SELECT id
			FROM content_inbox
			WHERE status = 'pending' AND next_attempt_at <= NOW()
			ORDER BY next_attempt_at ASC, id ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE content_inbox q
		SET next_attempt_at = NOW() + $2::interval
		FROM cte
		WHERE q.id = cte.id
		RETURNING q.id, q.endpoint_id, q.message_id, q.technical_message_type, q.sent_at,
			q.sender_id, q.receiver_id, q.file_name, q.content, q.attempts
	`
	out, err := store.Many(ctx, r.q, scanMessage, sql, n, leaseFor.String())
	if err != nil {
		return nil, perr.FromPostgres(err, "lease content messages")
	}
	return out, nil
}

func scanMessage(row repokit.Row) (domain.ContentMessage, error) {
	var m domain.ContentMessage
	err := row.Scan(
		&m.ID, &m.EndpointID, &m.MessageID, &m.TechnicalMessageType, &m.Timestamp,
		&m.SenderID, &m.ReceiverID, &m.FileName, &m.Content, &m.Attempts,
	)
	return m, err
}

// Ack removes a handled message from the inbox
func (r *queries) Ack(ctx context.Context, id int64) error {
	const sql = `DELETE FROM content_inbox WHERE id = $1`
	_, err := r.q.Exec(ctx, sql, id)
	return perr.FromPostgres(err, "ack content message")
}

// Retry bumps attempts and schedules the next try
func (r *queries) Retry(ctx context.Context, id int64, backoff time.Duration, lastErr string) error {
	const sql = `
		UPDATE content_inbox
		SET attempts = attempts + 1,
		    last_error = LEFT($2, 500),
		    next_attempt_at = NOW() + $3::interval
		WHERE id = $1
	`
	return updateOne(ctx, r.q, "retry", id, sql, id, lastErr, backoff.String())
}

// Reject dead-letters a message whose archive can never decode
func (r *queries) Reject(ctx context.Context, id int64, code, reason string) error {
	const sql = `
		UPDATE content_inbox
		SET status = 'rejected',
		    attempts = attempts + 1,
		    error_code = $2,
		    last_error = LEFT($3, 500)
		WHERE id = $1
	`
	return updateOne(ctx, r.q, "reject", id, sql, id, code, reason)
}

// Fail parks a message that ran out of attempts
func (r *queries) Fail(ctx context.Context, id int64, lastErr string) error {
	const sql = `
		UPDATE content_inbox
		SET status = 'failed',
		    attempts = attempts + 1,
		    last_error = LEFT($2, 500)
		WHERE id = $1
	`
	return updateOne(ctx, r.q, "fail", id, sql, id, lastErr)
}

// updateOne runs a disposition update that must hit exactly the leased row
func updateOne(ctx context.Context, q repokit.Queryer, op string, id int64, sql string, args ...any) error {
	err := store.ExecOne(ctx, q, sql, args...)
	switch {
	case err == nil:
		return nil
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return perr.WithOp(perr.NotFoundf("content message %d is not in the inbox", id), op)
	default:
		return perr.FromPostgresf(err, "%s content message", op)
	}
}

// InsertDocuments stores decoded documents; a (message, file) pair already stored is skipped
func (r *queries) InsertDocuments(ctx context.Context, docs []container.Document) (int, error) {
	const sql = `
		INSERT INTO timelog_documents (
			id, message_id, endpoint_id, sender_id, receiver_id, file_name,
			sent_at, start_at, digest, record_width, entry_count, entries
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (message_id, file_name) DO NOTHING
	`
	inserted := 0
	for _, d := range docs {
		tag, err := r.q.Exec(ctx, sql,
			d.ID, d.MessageID, d.EndpointID, d.SenderID, d.ReceiverID, d.FileName,
			d.Timestamp.UTC(), d.Start, d.Digest, d.RecordWidth, len(d.Entries), entries(d),
		)
		if err != nil {
			return inserted, perr.FromPostgresf(err, "insert document %s", d.FileName)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// entries never hands pgx a nil slice, so the jsonb column gets [] rather than null
func entries(d container.Document) []timelog.Entry {
	if d.Entries == nil {
		return []timelog.Entry{}
	}
	return d.Entries
}

// Stats counts inbox messages by state and stored documents
func (r *queries) Stats(ctx context.Context) (domain.Stats, error) {
	const sql = `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'pending' AND next_attempt_at <= NOW()),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			(SELECT COUNT(*) FROM timelog_documents)
		FROM content_inbox
	`
	var s domain.Stats
	if err := r.q.QueryRow(ctx, sql).Scan(&s.Pending, &s.Due, &s.Rejected, &s.Failed, &s.Documents); err != nil {
		return domain.Stats{}, perr.FromPostgres(err, "inbox stats")
	}
	return s, nil
}
