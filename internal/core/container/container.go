// Package container assembles decoded TimeLog entries and message envelope
// metadata into the Document handed to persistence.
package container

import (
	"encoding/hex"
	"time"

	"taskdata/internal/core/timelog"
	perr "taskdata/internal/platform/errors"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Envelope is the read-only view of the message that carried the archive
type Envelope interface {
	EndpointID() string
	MessageID() string
	Timestamp() time.Time
	SenderID() string
	ReceiverID() string
}

// Meta is the plain Envelope implementation
type Meta struct {
	Endpoint string
	Message  string
	SentAt   time.Time
	Sender   string
	Receiver string
}

// EndpointID implements Envelope
func (m Meta) EndpointID() string { return m.Endpoint }

// MessageID implements Envelope
func (m Meta) MessageID() string { return m.Message }

// Timestamp implements Envelope
func (m Meta) Timestamp() time.Time { return m.SentAt }

// SenderID implements Envelope
func (m Meta) SenderID() string { return m.Sender }

// ReceiverID implements Envelope
func (m Meta) ReceiverID() string { return m.Receiver }

// Source identifies the binary a document was decoded from
type Source struct {
	FileName string
	Payload  []byte
}

// Document is one decoded TimeLog binary plus the metadata of its message
type Document struct {
	ID          uuid.UUID       `json:"id" yaml:"id" cbor:"id"`
	MessageID   string          `json:"message_id" yaml:"message_id" cbor:"message_id"`
	Timestamp   time.Time       `json:"timestamp" yaml:"timestamp" cbor:"timestamp"`
	SenderID    string          `json:"sender_id" yaml:"sender_id" cbor:"sender_id"`
	ReceiverID  string          `json:"receiver_id" yaml:"receiver_id" cbor:"receiver_id"`
	EndpointID  string          `json:"endpoint_id" yaml:"endpoint_id" cbor:"endpoint_id"`
	FileName    string          `json:"file_name" yaml:"file_name" cbor:"file_name"`
	Digest      string          `json:"digest" yaml:"digest" cbor:"digest"`
	RecordWidth int             `json:"record_width" yaml:"record_width" cbor:"record_width"`
	Start       *time.Time      `json:"start,omitempty" yaml:"start,omitempty" cbor:"start,omitempty"`
	Entries     []timelog.Entry `json:"entries" yaml:"entries" cbor:"entries"`
}

// namespace scopes document ids; changing it changes every stored id
var namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("iso11783-10.timelog"))

// DocumentID is stable for a (message, file) pair so redelivered messages map to the same row
func DocumentID(messageID, fileName string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(messageID+"\x00"+fileName))
}

// Digest is the hex BLAKE3-256 of a binary payload
func Digest(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Build wraps entries and envelope metadata into a Document. Entries are copied,
// so later changes to the caller's slices never reach the document.
func Build(env Envelope, src Source, s timelog.Schema, entries []timelog.Entry) (Document, error) {
	if env == nil {
		return Document{}, perr.WithOp(perr.InvalidArgf("envelope is required"), "container")
	}
	doc := Document{
		ID:          DocumentID(env.MessageID(), src.FileName),
		MessageID:   env.MessageID(),
		Timestamp:   env.Timestamp(),
		SenderID:    env.SenderID(),
		ReceiverID:  env.ReceiverID(),
		EndpointID:  env.EndpointID(),
		FileName:    src.FileName,
		Digest:      Digest(src.Payload),
		RecordWidth: s.Width(),
		Entries:     cloneEntries(entries),
	}
	if start, ok := s.Start(); ok {
		doc.Start = &start
	}
	return doc, nil
}

func cloneEntries(in []timelog.Entry) []timelog.Entry {
	if in == nil {
		return nil
	}
	n := 0
	for _, e := range in {
		n += len(e.Values)
	}
	backing := make([]timelog.Reading, 0, n)
	out := make([]timelog.Entry, len(in))
	for i, e := range in {
		lo := len(backing)
		backing = append(backing, e.Values...)
		out[i] = timelog.Entry{Seq: e.Seq, Values: backing[lo:len(backing):len(backing)]}
	}
	return out
}
