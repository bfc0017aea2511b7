package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"academymsg/internal/config"
	"academymsg/internal/models"
	"academymsg/internal/service"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.ProviderConfig{
		Name:         "solapi",
		BaseURL:      baseURL,
		APIKey:       "test-key",
		APISecret:    "test-secret",
		SenderNumber: "02-1234-5678",
	})
}

// TestTransmit_Success tests a delivered short text message
func TestTransmit_Success(t *testing.T) {
	// Setup - provider accepts the message
	var received sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages/v4/send" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "HMAC-SHA256 apiKey=test-key, date=") {
			t.Errorf("Unexpected authorization header: %s", auth)
		}
		if !strings.Contains(auth, "salt=") || !strings.Contains(auth, "signature=") {
			t.Errorf("Authorization header missing salt or signature: %s", auth)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"groupId":"G1","messageId":"MSG-1","statusCode":"2000","price":{"value":20}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	// Execute
	result, err := client.Transmit(context.Background(), &service.TransmitPayload{
		Channel:   models.ChannelShortText,
		ToPhone:   "010-1111-2222",
		FromPhone: "02-1234-5678",
		Message:   "Hi Kim",
	})

	// Verify
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if result.ProviderMessageID != "MSG-1" {
		t.Errorf("Expected message ID MSG-1, got %s", result.ProviderMessageID)
	}
	if result.Cost == nil || *result.Cost != 20 {
		t.Errorf("Expected cost 20, got %v", result.Cost)
	}
	if received.Message.Type != "SMS" {
		t.Errorf("Expected wire type SMS, got %s", received.Message.Type)
	}
	if received.Message.To != "010-1111-2222" {
		t.Errorf("Expected recipient forwarded, got %s", received.Message.To)
	}
}

// TestTransmit_WireTypes tests channel-to-wire-type mapping
func TestTransmit_WireTypes(t *testing.T) {
	subject := "[Academy] Notice"
	templateCode := "KT_PAY_001"

	testCases := []struct {
		name     string
		payload  *service.TransmitPayload
		wantType string
	}{
		{
			name: "short text maps to SMS",
			payload: &service.TransmitPayload{
				Channel: models.ChannelShortText,
				Message: "hi",
			},
			wantType: "SMS",
		},
		{
			name: "long text maps to LMS with subject",
			payload: &service.TransmitPayload{
				Channel: models.ChannelLongText,
				Subject: &subject,
				Message: "hi",
			},
			wantType: "LMS",
		},
		{
			name: "chat template maps to ATA with template options",
			payload: &service.TransmitPayload{
				Channel:      models.ChannelChatTemplate,
				Message:      templateCode,
				TemplateCode: &templateCode,
				Variables:    map[string]interface{}{"amount": 350000},
			},
			wantType: "ATA",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := buildSendRequest(tc.payload)
			if req.Message.Type != tc.wantType {
				t.Errorf("Expected type %s, got %s", tc.wantType, req.Message.Type)
			}
			if tc.payload.Channel == models.ChannelChatTemplate {
				if req.Message.KakaoOptions == nil || req.Message.KakaoOptions.TemplateCode != templateCode {
					t.Errorf("Expected kakao options with template code, got %+v", req.Message.KakaoOptions)
				}
			}
			if tc.payload.Subject != nil && (req.Message.Subject == nil || *req.Message.Subject != subject) {
				t.Errorf("Expected subject forwarded, got %v", req.Message.Subject)
			}
		})
	}
}

// TestTransmit_ProviderError tests mapping of a provider rejection to a
// transport error carrying the raw response
func TestTransmit_ProviderError(t *testing.T) {
	raw := `{"errorCode":"InvalidPhoneNumber","errorMessage":"invalid to number"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(raw))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Transmit(context.Background(), &service.TransmitPayload{
		Channel: models.ChannelShortText,
		ToPhone: "bad",
		Message: "hi",
	})

	var transportErr *service.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if transportErr.Code != "InvalidPhoneNumber" {
		t.Errorf("Expected provider error code, got %s", transportErr.Code)
	}
	if transportErr.Raw == nil || *transportErr.Raw != raw {
		t.Errorf("Expected raw response preserved, got %v", transportErr.Raw)
	}
}

// TestTransmit_HTTPErrorWithoutBody tests the fallback error code when
// the provider returns no structured error
func TestTransmit_HTTPErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Transmit(context.Background(), &service.TransmitPayload{
		Channel: models.ChannelShortText,
		Message: "hi",
	})

	var transportErr *service.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if transportErr.Code != "HTTP_503" {
		t.Errorf("Expected HTTP_503, got %s", transportErr.Code)
	}
}

// TestTransmit_MissingMessageID tests rejection of a 2xx response
// without a message ID
func TestTransmit_MissingMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"statusCode":"2000"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Transmit(context.Background(), &service.TransmitPayload{
		Channel: models.ChannelShortText,
		Message: "hi",
	})

	var transportErr *service.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if transportErr.Code != "PROVIDER_NO_MESSAGE_ID" {
		t.Errorf("Expected PROVIDER_NO_MESSAGE_ID, got %s", transportErr.Code)
	}
}

// TestTransmit_MissingCredentials tests the local credential guard
func TestTransmit_MissingCredentials(t *testing.T) {
	client := NewClient(config.ProviderConfig{Name: "solapi", BaseURL: "http://localhost:0"})

	_, err := client.Transmit(context.Background(), &service.TransmitPayload{
		Channel: models.ChannelShortText,
		Message: "hi",
	})

	var transportErr *service.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if transportErr.Code != "PROVIDER_NOT_CONFIGURED" {
		t.Errorf("Expected PROVIDER_NOT_CONFIGURED, got %s", transportErr.Code)
	}
}
