package store

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeTxNoPing satisfies TxRunner but not Pinger
type fakeTxNoPing struct{}

func (f *fakeTxNoPing) Tx(ctx context.Context, fn func(q RowQuerier) error) error { return fn(f) }
func (f *fakeTxNoPing) Exec(context.Context, string, ...any) (CommandTag, error) {
	return nil, nil
}
func (f *fakeTxNoPing) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (f *fakeTxNoPing) QueryRow(context.Context, string, ...any) Row       { return nil }

// fakeTxWithPing satisfies TxRunner and Pinger
type fakeTxWithPing struct {
	fakeTxNoPing
	err error
}

func (f *fakeTxWithPing) Ping(context.Context) error { return f.err }

// fakeCH satisfies Clickhouse and Pinger
type fakeCH struct{ pingErr error }

func (f *fakeCH) Insert(context.Context, string, []string, [][]any) error { return nil }
func (f *fakeCH) Exec(context.Context, string, ...any) error              { return nil }
func (f *fakeCH) Query(context.Context, string, ...any) (Rows, error)     { return nil, nil }
func (f *fakeCH) Close() error                                            { return nil }
func (f *fakeCH) Ping(context.Context) error                              { return f.pingErr }

func TestGuard(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	cases := []struct {
		name    string
		store   *Store
		wantErr []string
	}{
		{name: "nil store", store: nil, wantErr: []string{"nil store"}},
		{name: "no seams", store: &Store{}},
		{name: "pg not a pinger", store: &Store{PG: &fakeTxNoPing{}}},
		{name: "pg ok ch ok", store: &Store{PG: &fakeTxWithPing{}, CH: &fakeCH{}}},
		{name: "pg down", store: &Store{PG: &fakeTxWithPing{err: boom}}, wantErr: []string{"pg: boom"}},
		{name: "ch down", store: &Store{CH: &fakeCH{pingErr: boom}}, wantErr: []string{"ch: boom"}},
		{
			name:    "both down",
			store:   &Store{PG: &fakeTxWithPing{err: boom}, CH: &fakeCH{pingErr: boom}},
			wantErr: []string{"pg: boom", "ch: boom"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.store.Guard(context.Background())
			if len(tc.wantErr) == 0 {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error")
			}
			for _, w := range tc.wantErr {
				if !strings.Contains(err.Error(), w) {
					t.Fatalf("error %q missing %q", err, w)
				}
			}
		})
	}
}
