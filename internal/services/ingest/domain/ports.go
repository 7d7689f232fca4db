// Package domain defines the public ports for the ingest service
package domain

import (
	"context"

	"taskdata/internal/core/container"
)

// WorkerPort runs the long-lived inbox processors
type WorkerPort interface {
	Run(ctx context.Context) error
}

// InboxPort stores content messages for the worker; a message id already
// present is not stored again and reports inserted=false
type InboxPort interface {
	Enqueue(ctx context.Context, m ContentMessage) (inserted bool, err error)
}

// StatsPort reports inbox and document counts
type StatsPort interface {
	Stats(ctx context.Context) (Stats, error)
}

// Decoder turns one base64 TaskData archive into documents
type Decoder interface {
	Decode(env container.Envelope, blob []byte) ([]container.Document, error)
}

// ValueSink receives the flattened readings of decoded documents
type ValueSink interface {
	WriteValues(ctx context.Context, docs []container.Document) error
}
