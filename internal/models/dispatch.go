package models

import (
	"fmt"
	"time"
)

// DispatchRequest represents one logical send: the caller names a
// business purpose and a target, and the dispatch engine resolves the
// rest (template, channel, sizing) from the purpose configuration.
type DispatchRequest struct {
	PurposeCode string                 `json:"purpose_code"`
	ToPhone     string                 `json:"to_phone"`
	ToName      *string                `json:"to_name,omitempty"`
	ToType      TargetAudience         `json:"to_type"`
	Variables   map[string]interface{} `json:"variables,omitempty"`
	RefType     *string                `json:"ref_type,omitempty"`
	RefID       *int64                 `json:"ref_id,omitempty"`
	SendType    SendType               `json:"send_type"`
	ScheduledAt *time.Time             `json:"scheduled_at,omitempty"`
	CreatedBy   *int64                 `json:"created_by,omitempty"`

	// Assigned by the batch scheduler when grouped
	BatchID  *string `json:"batch_id,omitempty"`
	BatchSeq *int    `json:"batch_seq,omitempty"`
}

// Validate checks if the dispatch request fields are valid
func (r *DispatchRequest) Validate() error {
	if r.PurposeCode == "" {
		return fmt.Errorf("purpose code is required")
	}
	if r.ToPhone == "" {
		return fmt.Errorf("target phone is required")
	}
	if r.ToType != TargetAudienceAdmin && r.ToType != TargetAudienceUser {
		return fmt.Errorf("invalid target type: must be 'ADMIN' or 'USER'")
	}
	if !r.SendType.IsValid() {
		return fmt.Errorf("invalid send type: must be 'IMMEDIATE', 'BATCH' or 'SCHEDULED'")
	}
	if r.SendType == SendTypeScheduled && r.ScheduledAt == nil {
		return fmt.Errorf("scheduled_at is required for scheduled sends")
	}
	if r.SendType != SendTypeScheduled && r.ScheduledAt != nil {
		return fmt.Errorf("scheduled_at is only allowed for scheduled sends")
	}
	return nil
}
