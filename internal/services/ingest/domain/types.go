package domain

import (
	"time"

	"taskdata/internal/core/container"
)

// TechTaskDataZip is the only technical message type the worker decodes
const TechTaskDataZip = "iso:11783:-10:taskdata:zip"

// Status is the inbox state of a content message; decoded messages are deleted
type Status string

// Inbox states
const (
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

// ContentMessage is one stored message as received from the messaging layer.
// Content holds the base64 archive text exactly as delivered.
type ContentMessage struct {
	ID                   int64     // assigned by the inbox
	EndpointID           string    `json:"endpoint_id" validate:"notblank,max=255"`
	MessageID            string    `json:"message_id" validate:"notblank,max=255"`
	TechnicalMessageType string    `json:"technical_message_type" validate:"notblank,max=255"`
	Timestamp            time.Time `json:"timestamp" validate:"required"`
	SenderID             string    `json:"sender_id" validate:"max=255"`
	ReceiverID           string    `json:"receiver_id" validate:"max=255"`
	FileName             string    `json:"file_name" validate:"max=1024"`
	Content              []byte    `json:"content" validate:"required,min=1"`
	Attempts             int       // delivery attempts so far
}

// Envelope returns the metadata the decoder stamps onto documents
func (m ContentMessage) Envelope() container.Meta {
	return container.Meta{
		Endpoint: m.EndpointID,
		Message:  m.MessageID,
		SentAt:   m.Timestamp,
		Sender:   m.SenderID,
		Receiver: m.ReceiverID,
	}
}

// Stats is a point-in-time view of the inbox and document store
type Stats struct {
	Pending   int64 `json:"pending"`
	Due       int64 `json:"due"`
	Rejected  int64 `json:"rejected"`
	Failed    int64 `json:"failed"`
	Documents int64 `json:"documents"`
}
