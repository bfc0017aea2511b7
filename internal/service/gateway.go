package service

import (
	"context"

	"academymsg/internal/models"
)

// TransmitPayload is the rendered message handed to the provider gateway.
// For chat-template sends the body is provider-rendered: the payload
// carries the pre-approved template code plus raw variables instead.
type TransmitPayload struct {
	Channel      models.Channel         `json:"channel"`
	ToPhone      string                 `json:"to_phone"`
	FromPhone    string                 `json:"from_phone"`
	Subject      *string                `json:"subject,omitempty"`
	Message      string                 `json:"message"`
	TemplateCode *string                `json:"template_code,omitempty"`
	Variables    map[string]interface{} `json:"variables,omitempty"`
}

// TransmitResult is a successful provider response
type TransmitResult struct {
	ProviderMessageID string
	Cost              *int
	RawResponseJSON   *string
}

// ProviderGateway is the transport to the third-party delivery provider.
// It is the only blocking collaborator of the dispatch engine; failures
// surface as *TransportError.
type ProviderGateway interface {
	Name() string
	Transmit(ctx context.Context, payload *TransmitPayload) (*TransmitResult, error)
}
