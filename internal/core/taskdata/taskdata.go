// Package taskdata runs the full TimeLog pipeline over one TaskData archive:
// unpack, parse each structure description, decode each binary, build documents.
package taskdata

import (
	"encoding/binary"

	"taskdata/internal/core/archive"
	"taskdata/internal/core/binval"
	"taskdata/internal/core/container"
	"taskdata/internal/core/timelog"
	"taskdata/internal/core/tlgschema"
	perr "taskdata/internal/platform/errors"
)

// Default bounds applied when a Limits field is zero or negative
const (
	DefaultMaxArchiveBytes   int64 = 64 << 20
	DefaultMaxArchiveEntries       = 4096
	DefaultMaxEntryBytes     int64 = 64 << 20
	DefaultMaxInflatedBytes  int64 = 256 << 20
	DefaultMaxRecords              = 5_000_000
	DefaultMaxFields               = 1024
)

// Limits bounds the memory and work a single archive may cost
type Limits struct {
	MaxArchiveBytes   int64
	MaxArchiveEntries int
	MaxEntryBytes     int64
	MaxInflatedBytes  int64
	MaxRecords        int
	MaxFields         int
}

// DefaultLimits returns the default bounds
func DefaultLimits() Limits { return Limits{}.normalize() }

func (l Limits) normalize() Limits {
	if l.MaxArchiveBytes <= 0 {
		l.MaxArchiveBytes = DefaultMaxArchiveBytes
	}
	if l.MaxArchiveEntries <= 0 {
		l.MaxArchiveEntries = DefaultMaxArchiveEntries
	}
	if l.MaxEntryBytes <= 0 {
		l.MaxEntryBytes = DefaultMaxEntryBytes
	}
	if l.MaxInflatedBytes <= 0 {
		l.MaxInflatedBytes = DefaultMaxInflatedBytes
	}
	if l.MaxRecords <= 0 {
		l.MaxRecords = DefaultMaxRecords
	}
	if l.MaxFields <= 0 {
		l.MaxFields = DefaultMaxFields
	}
	return l
}

// Decoder holds only immutable configuration and is safe for concurrent use
type Decoder struct {
	Limits Limits
	// Order is the byte order of TimeLog binaries; nil means big-endian
	Order binary.ByteOrder
}

// New returns a Decoder with normalized limits
func New(lim Limits, order binary.ByteOrder) Decoder {
	return Decoder{Limits: lim.normalize(), Order: order}
}

// Decode runs the pipeline over a base64 archive. It returns one document per
// TimeLog binary, or no documents and the first error.
func (d Decoder) Decode(env container.Envelope, blob []byte) ([]container.Document, error) {
	if env == nil {
		return nil, perr.WithOp(perr.InvalidArgf("envelope is required"), "taskdata")
	}
	pairs, err := archive.Unpack(blob, d.archiveLimits())
	if err != nil {
		return nil, err
	}
	return d.decodePairs(env, pairs)
}

// DecodeZip is Decode for an archive that is already raw zip bytes
func (d Decoder) DecodeZip(env container.Envelope, raw []byte) ([]container.Document, error) {
	if env == nil {
		return nil, perr.WithOp(perr.InvalidArgf("envelope is required"), "taskdata")
	}
	pairs, err := archive.UnpackZip(raw, d.archiveLimits())
	if err != nil {
		return nil, err
	}
	return d.decodePairs(env, pairs)
}

func (d Decoder) decodePairs(env container.Envelope, pairs []archive.Pair) ([]container.Document, error) {
	docs := make([]container.Document, 0, len(pairs))
	for _, p := range pairs {
		doc, err := d.DecodeFile(env, p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DecodeFile decodes one already-paired TimeLog
func (d Decoder) DecodeFile(env container.Envelope, p archive.Pair) (container.Document, error) {
	lim := d.Limits.normalize()

	s, err := tlgschema.Parse(p.Structure, tlgschema.Options{MaxFields: lim.MaxFields})
	if err != nil {
		return container.Document{}, perr.Annotate(err, "schema", p.StructureFile)
	}
	entries, err := timelog.Decode(s, p.Binary, timelog.Options{
		MaxRecords: lim.MaxRecords,
		Reader:     binval.Reader{Order: d.Order},
	})
	if err != nil {
		return container.Document{}, perr.Annotate(err, "timelog", p.BinaryFile)
	}
	doc, err := container.Build(env, container.Source{FileName: p.BinaryFile, Payload: p.Binary}, s, entries)
	if err != nil {
		return container.Document{}, perr.Annotate(err, "container", p.BinaryFile)
	}
	return doc, nil
}

func (d Decoder) archiveLimits() archive.Limits {
	lim := d.Limits.normalize()
	return archive.Limits{
		MaxArchiveBytes: lim.MaxArchiveBytes,
		MaxEntries:      lim.MaxArchiveEntries,
		MaxEntryBytes:   lim.MaxEntryBytes,

		MaxInflatedBytes: lim.MaxInflatedBytes,
	}
}
