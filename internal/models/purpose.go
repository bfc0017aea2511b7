package models

import (
	"fmt"
	"time"
)

// Channel represents valid messaging channels
type Channel string

const (
	ChannelShortText    Channel = "SHORT_TEXT"
	ChannelLongText     Channel = "LONG_TEXT"
	ChannelChatTemplate Channel = "CHAT_TEMPLATE"
)

// IsValid checks if the channel is one of the known channels
func (c Channel) IsValid() bool {
	switch c {
	case ChannelShortText, ChannelLongText, ChannelChatTemplate:
		return true
	}
	return false
}

// TargetAudience represents who a purpose is allowed to message
type TargetAudience string

const (
	TargetAudienceAdmin TargetAudience = "ADMIN"
	TargetAudienceUser  TargetAudience = "USER"
	TargetAudienceBoth  TargetAudience = "BOTH"
)

// IsValid checks if the target audience is one of the known values
func (t TargetAudience) IsValid() bool {
	switch t {
	case TargetAudienceAdmin, TargetAudienceUser, TargetAudienceBoth:
		return true
	}
	return false
}

// Purpose represents a business-scenario configuration looked up by code.
// It is the single source of truth for which template text and which
// default/fallback channel apply to a notification scenario.
type Purpose struct {
	Code             string         `json:"code" db:"code"`
	Name             string         `json:"name" db:"name"`
	Description      *string        `json:"description,omitempty" db:"description"`
	TargetAudience   TargetAudience `json:"target_audience" db:"target_audience"`
	DefaultChannel   Channel        `json:"default_channel" db:"default_channel"`
	ShortTemplate    *string        `json:"short_template,omitempty" db:"short_template"`
	LongTemplate     *string        `json:"long_template,omitempty" db:"long_template"`
	LongSubject      *string        `json:"long_subject,omitempty" db:"long_subject"`
	ChatTemplateCode *string        `json:"chat_template_code,omitempty" db:"chat_template_code"`
	IsActive         bool           `json:"is_active" db:"is_active"`
	IsBatchAvailable bool           `json:"is_batch_available" db:"is_batch_available"`
	FallbackChannel  *Channel       `json:"fallback_channel,omitempty" db:"fallback_channel"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// Validate checks if the purpose fields are valid
func (p *Purpose) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("purpose code is required")
	}
	if p.Name == "" {
		return fmt.Errorf("purpose name is required")
	}
	if !p.TargetAudience.IsValid() {
		return fmt.Errorf("invalid target audience: must be 'ADMIN', 'USER' or 'BOTH'")
	}
	if !p.DefaultChannel.IsValid() {
		return fmt.Errorf("invalid default channel: %s", p.DefaultChannel)
	}
	if p.DefaultChannel == ChannelChatTemplate {
		if p.ChatTemplateCode == nil || *p.ChatTemplateCode == "" {
			return fmt.Errorf("chat template code is required when default channel is CHAT_TEMPLATE")
		}
	}
	if p.FallbackChannel != nil {
		if *p.FallbackChannel != ChannelShortText && *p.FallbackChannel != ChannelLongText {
			return fmt.Errorf("invalid fallback channel: must be 'SHORT_TEXT' or 'LONG_TEXT'")
		}
		if p.DefaultChannel != ChannelChatTemplate {
			return fmt.Errorf("fallback channel is only meaningful when default channel is CHAT_TEMPLATE")
		}
	}
	return nil
}

// TemplateFor returns the template body for the given text channel.
// Chat template payloads are pre-approved provider-side and have no
// local body, so CHAT_TEMPLATE returns nil.
func (p *Purpose) TemplateFor(channel Channel) *string {
	switch channel {
	case ChannelShortText:
		return p.ShortTemplate
	case ChannelLongText:
		return p.LongTemplate
	case ChannelChatTemplate:
		return nil
	}
	return nil
}

// LongSubjectOrDefault returns the configured long-message subject,
// falling back to the system default when not set
func (p *Purpose) LongSubjectOrDefault(systemDefault string) string {
	if p.LongSubject != nil && *p.LongSubject != "" {
		return *p.LongSubject
	}
	return systemDefault
}

// HasFallback checks whether a chat-template failure may fall back to a text channel
func (p *Purpose) HasFallback() bool {
	return p.DefaultChannel == ChannelChatTemplate && p.FallbackChannel != nil
}
