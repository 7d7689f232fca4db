package service

import (
	"context"
	"sync"
	"time"

	"taskdata/internal/core/container"
	"taskdata/internal/modkit/repokit"
	"taskdata/internal/services/ingest/domain"
)

// fakeRepo records queue dispositions and stored documents
type fakeRepo struct {
	mu sync.Mutex

	leased    [][]domain.ContentMessage
	leaseErr  error
	enqueued  []domain.ContentMessage
	acked     []int64
	retried   map[int64]time.Duration
	rejected  map[int64]string
	failed    []int64
	docs      []container.Document
	insertErr error
	stats     domain.Stats

	// rejectErr fails Reject after recording the attempt
	rejectErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{retried: map[int64]time.Duration{}, rejected: map[int64]string{}}
}

func (f *fakeRepo) Enqueue(_ context.Context, m domain.ContentMessage) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enqueued {
		if e.MessageID == m.MessageID {
			return false, nil
		}
	}
	f.enqueued = append(f.enqueued, m)
	return true, nil
}

func (f *fakeRepo) Lease(context.Context, int, time.Duration) ([]domain.ContentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leaseErr != nil {
		return nil, f.leaseErr
	}
	if len(f.leased) == 0 {
		return nil, nil
	}
	out := f.leased[0]
	f.leased = f.leased[1:]
	return out, nil
}

func (f *fakeRepo) Ack(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeRepo) Retry(_ context.Context, id int64, backoff time.Duration, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retried[id] = backoff
	return nil
}

func (f *fakeRepo) Reject(_ context.Context, id int64, code, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected[id] = code
	return f.rejectErr
}

func (f *fakeRepo) Fail(_ context.Context, id int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) InsertDocuments(_ context.Context, docs []container.Document) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.docs = append(f.docs, docs...)
	return len(docs), nil
}

func (f *fakeRepo) Stats(context.Context) (domain.Stats, error) { return f.stats, nil }

// fakeTx runs fn inline and counts transactions
type fakeTx struct {
	calls int
	execs []string
}

func (t *fakeTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error {
	t.calls++
	return fn(t)
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (repokit.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return nil, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (repokit.Rows, error) { return nil, nil }
func (t *fakeTx) QueryRow(context.Context, string, ...any) repokit.Row        { return nil }

// fakeDecoder returns preset documents or an error
type fakeDecoder struct {
	docs  []container.Document
	err   error
	calls int
}

func (d *fakeDecoder) Decode(env container.Envelope, _ []byte) ([]container.Document, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	out := make([]container.Document, len(d.docs))
	for i, doc := range d.docs {
		doc.MessageID = env.MessageID()
		doc.EndpointID = env.EndpointID()
		out[i] = doc
	}
	return out, nil
}

// fakeSink records value writes
type fakeSink struct {
	writes int
	err    error
}

func (s *fakeSink) WriteValues(context.Context, []container.Document) error {
	s.writes++
	return s.err
}
