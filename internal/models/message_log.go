package models

import (
	"fmt"
	"time"
)

// MessageStatus represents valid message log statuses
type MessageStatus string

const (
	MessageStatusPending  MessageStatus = "PENDING"
	MessageStatusSuccess  MessageStatus = "SUCCESS"
	MessageStatusFailed   MessageStatus = "FAILED"
	MessageStatusCanceled MessageStatus = "CANCELED"
)

// IsTerminal checks whether the status is a terminal state
func (s MessageStatus) IsTerminal() bool {
	return s == MessageStatusSuccess || s == MessageStatusFailed || s == MessageStatusCanceled
}

// SendType represents how a message is delivered
type SendType string

const (
	SendTypeImmediate SendType = "IMMEDIATE"
	SendTypeBatch     SendType = "BATCH"
	SendTypeScheduled SendType = "SCHEDULED"
)

// IsValid checks if the send type is one of the known values
func (s SendType) IsValid() bool {
	switch s {
	case SendTypeImmediate, SendTypeBatch, SendTypeScheduled:
		return true
	}
	return false
}

// SizeTier represents the capacity class of a rendered message body
type SizeTier string

const (
	SizeTierShortText SizeTier = "SHORT_TEXT"
	SizeTierLongText  SizeTier = "LONG_TEXT"
)

// MessageLog is the durable record of a single send attempt.
// It is created in PENDING with every immutable field populated and
// finalized exactly once to a terminal status.
type MessageLog struct {
	ID int64 `json:"id" db:"id"`

	// Immutable at creation
	Channel      Channel        `json:"channel" db:"channel"`
	SendType     SendType       `json:"send_type" db:"send_type"`
	ToPhone      string         `json:"to_phone" db:"to_phone"`
	ToName       *string        `json:"to_name,omitempty" db:"to_name"`
	ToType       TargetAudience `json:"to_type" db:"to_type"`
	FromPhone    string         `json:"from_phone" db:"from_phone"`
	Subject      *string        `json:"subject,omitempty" db:"subject"`
	Message      string         `json:"message" db:"message"`
	TemplateCode *string        `json:"template_code,omitempty" db:"template_code"`
	PurposeCode  string         `json:"purpose_code" db:"purpose_code"`
	RefType      *string        `json:"ref_type,omitempty" db:"ref_type"`
	RefID        *int64         `json:"ref_id,omitempty" db:"ref_id"`
	BatchID      *string        `json:"batch_id,omitempty" db:"batch_id"`
	BatchSeq     *int           `json:"batch_seq,omitempty" db:"batch_seq"`
	ScheduledAt  *time.Time     `json:"scheduled_at,omitempty" db:"scheduled_at"`
	RequestJSON  *string        `json:"request_json,omitempty" db:"request_json"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	CreatedBy    *int64         `json:"created_by,omitempty" db:"created_by"` // nil implies system-triggered

	// Mutable on finalize
	Status            MessageStatus `json:"status" db:"status"`
	Provider          string        `json:"provider" db:"provider"`
	ProviderMessageID *string       `json:"provider_message_id,omitempty" db:"provider_message_id"`
	Cost              *int          `json:"cost,omitempty" db:"cost"`
	CharacterCount    *int          `json:"character_count,omitempty" db:"character_count"`
	ByteCount         *int          `json:"byte_count,omitempty" db:"byte_count"`
	SizeExceeded      bool          `json:"size_exceeded" db:"size_exceeded"`
	ErrorCode         *string       `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage      *string       `json:"error_message,omitempty" db:"error_message"`
	ResponseJSON      *string       `json:"response_json,omitempty" db:"response_json"`
	SentAt            *time.Time    `json:"sent_at,omitempty" db:"sent_at"`
}

// MarkSent finalizes the log as SUCCESS.
// A log that already reached a terminal state cannot be finalized again.
func (m *MessageLog) MarkSent(providerMessageID string, cost *int, responseJSON *string, sentAt time.Time) error {
	if m.Status.IsTerminal() {
		return fmt.Errorf("message log %d is already %s", m.ID, m.Status)
	}
	m.Status = MessageStatusSuccess
	m.ProviderMessageID = &providerMessageID
	m.Cost = cost
	m.ResponseJSON = responseJSON
	m.SentAt = &sentAt
	return nil
}

// MarkFailed finalizes the log as FAILED.
// A failed attempt is still timestamped: "attempted but failed" is a
// recorded fact, not a missing one.
func (m *MessageLog) MarkFailed(errorCode, errorMessage string, responseJSON *string, sentAt time.Time) error {
	if m.Status.IsTerminal() {
		return fmt.Errorf("message log %d is already %s", m.ID, m.Status)
	}
	m.Status = MessageStatusFailed
	m.ErrorCode = &errorCode
	m.ErrorMessage = &errorMessage
	m.ResponseJSON = responseJSON
	m.SentAt = &sentAt
	return nil
}

// MarkCanceled cancels a scheduled log that has not been transmitted yet
func (m *MessageLog) MarkCanceled() error {
	if m.Status.IsTerminal() {
		return fmt.Errorf("message log %d is already %s", m.ID, m.Status)
	}
	if m.SendType != SendTypeScheduled {
		return fmt.Errorf("only scheduled messages can be canceled")
	}
	m.Status = MessageStatusCanceled
	return nil
}

// IsDue checks whether a scheduled message is ready for transmission
func (m *MessageLog) IsDue(now time.Time) bool {
	return m.ScheduledAt != nil && !m.ScheduledAt.After(now)
}
