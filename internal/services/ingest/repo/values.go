package repo

import (
	"context"
	"fmt"

	"taskdata/internal/core/container"
	perr "taskdata/internal/platform/errors"
	"taskdata/internal/platform/store"
)

// DefaultValuesTable is the ClickHouse table readings are flattened into
const DefaultValuesTable = "timelog_values"

var valueColumns = []string{
	"document_id", "message_id", "endpoint_id", "file_name", "seq", "ddi", "value", "sent_at",
}

// CHValues writes one ClickHouse row per reading
type CHValues struct {
	ch    store.Clickhouse
	table string
	// batch caps rows per insert; 0 sends each call as one batch
	batch int
}

// NewCHValues returns a value sink on ch; an empty table uses DefaultValuesTable
func NewCHValues(ch store.Clickhouse, table string, batch int) *CHValues {
	if table == "" {
		table = DefaultValuesTable
	}
	return &CHValues{ch: ch, table: table, batch: batch}
}

// EnsureTable creates the values table. ReplacingMergeTree collapses rows
// rewritten by a redelivered message.
func (s *CHValues) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			document_id UUID,
			message_id  String,
			endpoint_id LowCardinality(String),
			file_name   String,
			seq         UInt32,
			ddi         UInt16,
			value       Float64,
			sent_at     DateTime64(3, 'UTC')
		)
		ENGINE = ReplacingMergeTree
		PARTITION BY toYYYYMM(sent_at)
		ORDER BY (endpoint_id, document_id, seq, ddi)
	`, s.table)
	if err := s.ch.Exec(ctx, ddl); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "create %s", s.table)
	}
	return nil
}

// WriteValues flattens every entry of every document into rows
func (s *CHValues) WriteValues(ctx context.Context, docs []container.Document) error {
	rows := Flatten(docs)
	if len(rows) == 0 {
		return nil
	}
	step := s.batch
	if step <= 0 {
		step = len(rows)
	}
	for start := 0; start < len(rows); start += step {
		end := min(start+step, len(rows))
		if err := s.ch.Insert(ctx, s.table, valueColumns, rows[start:end]); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "insert %d values into %s", end-start, s.table)
		}
	}
	return nil
}

// Flatten turns documents into rows matching the values table columns
func Flatten(docs []container.Document) [][]any {
	n := 0
	for _, d := range docs {
		for _, e := range d.Entries {
			n += len(e.Values)
		}
	}
	out := make([][]any, 0, n)
	for _, d := range docs {
		sent := d.Timestamp.UTC()
		for _, e := range d.Entries {
			for _, v := range e.Values {
				out = append(out, []any{
					d.ID, d.MessageID, d.EndpointID, d.FileName,
					uint32(e.Seq), v.DDI, v.Value, sent,
				})
			}
		}
	}
	return out
}
