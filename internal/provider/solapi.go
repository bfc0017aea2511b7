// Package provider implements the delivery provider gateway over the
// Solapi-compatible HTTP API with HMAC-SHA256 request signing.
package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"academymsg/internal/config"
	"academymsg/internal/models"
	"academymsg/internal/service"
)

const (
	sendEndpoint   = "/messages/v4/send"
	requestTimeout = 10 * time.Second
)

// Client talks to the delivery provider's REST API.
// It implements service.ProviderGateway.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewClient creates a new provider client from configuration
func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{
		name:      cfg.Name,
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Name returns the provider identity recorded on message logs
func (c *Client) Name() string {
	return c.name
}

// sendRequest is the provider wire format for a single message
type sendRequest struct {
	Message providerMessage `json:"message"`
}

type providerMessage struct {
	To           string        `json:"to"`
	From         string        `json:"from"`
	Text         string        `json:"text"`
	Subject      *string       `json:"subject,omitempty"`
	Type         string        `json:"type"`
	KakaoOptions *kakaoOptions `json:"kakaoOptions,omitempty"`
}

type kakaoOptions struct {
	TemplateCode string                 `json:"templateId"`
	Variables    map[string]interface{} `json:"variables,omitempty"`
}

// sendResponse is the provider wire format for a send result
type sendResponse struct {
	GroupID   string `json:"groupId"`
	MessageID string `json:"messageId"`
	Status    string `json:"statusCode"`
	Price     *struct {
		Value int `json:"value"`
	} `json:"price"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Transmit sends one message through the provider API
func (c *Client) Transmit(ctx context.Context, payload *service.TransmitPayload) (*service.TransmitResult, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, &service.TransportError{Code: "PROVIDER_NOT_CONFIGURED", Message: "provider credentials are not set"}
	}

	body, err := json.Marshal(buildSendRequest(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authorizationHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &service.TransportError{Code: "PROVIDER_UNREACHABLE", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &service.TransportError{Code: "PROVIDER_READ_ERROR", Message: err.Error(), Err: err}
	}
	rawJSON := string(raw)

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &service.TransportError{Code: "PROVIDER_BAD_RESPONSE", Message: err.Error(), Raw: &rawJSON, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := parsed.ErrorCode
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		message := parsed.ErrorMessage
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, &service.TransportError{Code: code, Message: message, Raw: &rawJSON}
	}

	if parsed.MessageID == "" {
		return nil, &service.TransportError{Code: "PROVIDER_NO_MESSAGE_ID", Message: "provider accepted the request but returned no message id", Raw: &rawJSON}
	}

	result := &service.TransmitResult{
		ProviderMessageID: parsed.MessageID,
		RawResponseJSON:   &rawJSON,
	}
	if parsed.Price != nil {
		cost := parsed.Price.Value
		result.Cost = &cost
	}

	return result, nil
}

// buildSendRequest maps the dispatch payload to the provider wire format
func buildSendRequest(payload *service.TransmitPayload) sendRequest {
	message := providerMessage{
		To:      payload.ToPhone,
		From:    payload.FromPhone,
		Text:    payload.Message,
		Subject: payload.Subject,
	}

	switch payload.Channel {
	case models.ChannelShortText:
		message.Type = "SMS"
	case models.ChannelLongText:
		message.Type = "LMS"
	case models.ChannelChatTemplate:
		message.Type = "ATA"
		if payload.TemplateCode != nil {
			message.KakaoOptions = &kakaoOptions{
				TemplateCode: *payload.TemplateCode,
				Variables:    payload.Variables,
			}
		}
	}

	return sendRequest{Message: message}
}

// authorizationHeader builds the HMAC-SHA256 signature header the
// provider requires: the signature covers the request date and a
// per-request salt
func (c *Client) authorizationHeader() string {
	date := time.Now().UTC().Format(time.RFC3339)
	salt := newSalt()

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(date + salt))
	signature := hex.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf(
		"HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s",
		c.apiKey, date, salt, signature,
	)
}

// newSalt generates a random per-request salt
func newSalt() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is unrecoverable for signing purposes
		panic(fmt.Sprintf("failed to generate salt: %v", err))
	}
	return hex.EncodeToString(buf)
}
