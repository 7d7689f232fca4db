package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskdata/internal/core/container"
	"taskdata/internal/core/timelog"
	perr "taskdata/internal/platform/errors"
	"taskdata/internal/platform/store"
)

type insert struct {
	table string
	cols  []string
	rows  int
}

type recCH struct {
	inserts []insert
	execs   []string
	err     error
}

func (c *recCH) Insert(_ context.Context, table string, cols []string, rows [][]any) error {
	c.inserts = append(c.inserts, insert{table: table, cols: cols, rows: len(rows)})
	return c.err
}

func (c *recCH) Exec(_ context.Context, sql string, _ ...any) error {
	c.execs = append(c.execs, sql)
	return c.err
}

func (c *recCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (c *recCH) Close() error                                            { return nil }

func sampleDocs() []container.Document {
	sent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("cet", 3600))
	return []container.Document{
		{
			ID: container.DocumentID("m", "A.BIN"), MessageID: "m", EndpointID: "ep", FileName: "A.BIN", Timestamp: sent,
			Entries: []timelog.Entry{
				{Seq: 0, Values: []timelog.Reading{{DDI: 1, Value: 1.5}, {DDI: 2, Value: 2}}},
				{Seq: 1, Values: []timelog.Reading{{DDI: 1, Value: 3}, {DDI: 2, Value: 4}}},
			},
		},
		{
			ID: container.DocumentID("m", "B.BIN"), MessageID: "m", EndpointID: "ep", FileName: "B.BIN", Timestamp: sent,
			Entries: []timelog.Entry{{Seq: 0, Values: []timelog.Reading{{DDI: 9, Value: 0.1}}}},
		},
	}
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	rows := Flatten(sampleDocs())
	if len(rows) != 5 {
		t.Fatalf("want 5 rows, got %d", len(rows))
	}
	r := rows[3]
	if len(r) != len(valueColumns) {
		t.Fatalf("row width %d, columns %d", len(r), len(valueColumns))
	}
	if r[3] != "A.BIN" || r[4] != uint32(1) || r[5] != uint16(2) || r[6] != 4.0 {
		t.Fatalf("unexpected row %v", r)
	}
	if ts := r[7].(time.Time); ts.Location() != time.UTC {
		t.Fatalf("sent_at not UTC: %v", ts)
	}
	if Flatten(nil) == nil || len(Flatten(nil)) != 0 {
		t.Fatalf("Flatten(nil) should be empty")
	}
}

func TestWriteValues_Batches(t *testing.T) {
	t.Parallel()

	ch := &recCH{}
	sink := NewCHValues(ch, "", 2)
	if err := sink.WriteValues(context.Background(), sampleDocs()); err != nil {
		t.Fatalf("WriteValues: %v", err)
	}
	if len(ch.inserts) != 3 {
		t.Fatalf("want 3 batches of <=2 rows, got %d", len(ch.inserts))
	}
	if ch.inserts[0].table != DefaultValuesTable || ch.inserts[2].rows != 1 {
		t.Fatalf("unexpected batches %+v", ch.inserts)
	}

	ch = &recCH{}
	if err := NewCHValues(ch, "vals", 0).WriteValues(context.Background(), nil); err != nil || len(ch.inserts) != 0 {
		t.Fatalf("no documents should not insert: %v %d", err, len(ch.inserts))
	}
}

func TestWriteValues_ErrorIsRetryable(t *testing.T) {
	t.Parallel()

	ch := &recCH{err: errors.New("dial tcp: refused")}
	err := NewCHValues(ch, "vals", 0).WriteValues(context.Background(), sampleDocs())
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) || !perr.Retryable(err) {
		t.Fatalf("want retryable unavailable error, got %v", err)
	}
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	ch := &recCH{}
	if err := NewCHValues(ch, "vals", 0).EnsureTable(context.Background()); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if len(ch.execs) != 1 || !strings.Contains(ch.execs[0], "CREATE TABLE IF NOT EXISTS vals") ||
		!strings.Contains(ch.execs[0], "ReplacingMergeTree") {
		t.Fatalf("unexpected ddl %v", ch.execs)
	}
}
