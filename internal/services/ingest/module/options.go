package module

import (
	"encoding/binary"
	"time"

	"taskdata/internal/core/taskdata"
	"taskdata/internal/platform/config"
)

// Options controls ingest behavior. Values may also be read from env
type Options struct {
	Concurrency      int
	QueueTakeBatch   int
	LeaseFor         time.Duration
	PollEvery        time.Duration
	RetryBase        time.Duration
	MaxAttempts      int
	StatementTimeout time.Duration
	DryRun           bool

	// ClickHouse value sink; ignored when no ClickHouse is configured
	ValuesTable string
	ValuesBatch int

	Decode DecodeOptions
}

// DecodeOptions bounds the decoder and picks the TimeLog byte order
type DecodeOptions struct {
	Limits       taskdata.Limits
	LittleEndian bool
}

// Decoder builds the pipeline these options describe
func (o DecodeOptions) Decoder() taskdata.Decoder {
	var order binary.ByteOrder = binary.BigEndian
	if o.LittleEndian {
		order = binary.LittleEndian
	}
	return taskdata.New(o.Limits, order)
}

// FromConfig reads options using the CORE_INGEST_ and CORE_DECODE_ prefixes
func FromConfig(cfg config.Conf) Options {
	in := cfg.Prefix("CORE_INGEST_")
	return Options{
		Concurrency:      in.MayInt("WORKER_CONCURRENCY", 4),
		QueueTakeBatch:   in.MayInt("QUEUE_TAKE_BATCH", 8),
		LeaseFor:         in.MayDuration("LEASE_FOR", 2*time.Minute),
		PollEvery:        in.MayDuration("POLL_EVERY", 500*time.Millisecond),
		RetryBase:        in.MayDuration("RETRY_BASE", 500*time.Millisecond),
		MaxAttempts:      in.MayInt("MAX_ATTEMPTS", 10),
		StatementTimeout: in.MayDuration("STATEMENT_TIMEOUT", 30*time.Second),
		DryRun:           in.MayBool("DRYRUN", false),
		ValuesTable:      in.MayString("VALUES_TABLE", ""),
		ValuesBatch:      in.MayInt("VALUES_BATCH", 50_000),
		Decode:           DecodeFromConfig(cfg),
	}
}

// DecodeFromConfig reads decoder limits and byte order using the CORE_DECODE_ prefix
func DecodeFromConfig(cfg config.Conf) DecodeOptions {
	dc := cfg.Prefix("CORE_DECODE_")
	return DecodeOptions{
		Limits: taskdata.Limits{
			MaxArchiveBytes:   dc.MayBytes("MAX_ARCHIVE_BYTES", taskdata.DefaultMaxArchiveBytes),
			MaxArchiveEntries: dc.MayInt("MAX_ARCHIVE_ENTRIES", taskdata.DefaultMaxArchiveEntries),
			MaxEntryBytes:     dc.MayBytes("MAX_ENTRY_BYTES", taskdata.DefaultMaxEntryBytes),
			MaxInflatedBytes:  dc.MayBytes("MAX_INFLATED_BYTES", taskdata.DefaultMaxInflatedBytes),
			MaxRecords:        dc.MayInt("MAX_RECORDS", taskdata.DefaultMaxRecords),
			MaxFields:         dc.MayInt("MAX_FIELDS", taskdata.DefaultMaxFields),
		},
		LittleEndian: dc.MayEnum("BYTE_ORDER", "big", "big", "little") == "little",
	}
}
