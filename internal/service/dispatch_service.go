package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"academymsg/internal/models"
	"academymsg/internal/repository"
)

// DispatchOptions carries the dispatch-time configuration values,
// passed explicitly instead of read from a process-wide singleton
type DispatchOptions struct {
	SenderNumber   string
	DefaultSubject string
}

// DispatchService orchestrates one logical send: it resolves the
// purpose, renders and sizes the message, decides the final channel
// (including the single chat-template fallback hop), records a message
// log and finalizes it from the gateway result.
//
// It holds no shared mutable state and is safe to invoke concurrently
// for independent requests.
type DispatchService struct {
	purposes  *PurposeService
	templates *TemplateService
	sizer     *SizerService
	logRepo   repository.MessageLogRepository
	gateway   ProviderGateway
	opts      DispatchOptions
	now       func() time.Time
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(
	purposes *PurposeService,
	templates *TemplateService,
	sizer *SizerService,
	logRepo repository.MessageLogRepository,
	gateway ProviderGateway,
	opts DispatchOptions,
) *DispatchService {
	return &DispatchService{
		purposes:  purposes,
		templates: templates,
		sizer:     sizer,
		logRepo:   logRepo,
		gateway:   gateway,
		opts:      opts,
		now:       time.Now,
	}
}

// WithClock replaces the service clock. Used by tests to make the
// PENDING-created and terminal-finalized timestamps deterministic.
func (s *DispatchService) WithClock(now func() time.Time) *DispatchService {
	s.now = now
	return s
}

// composition is the local, deterministic part of a send: the message
// as it will be handed to the gateway, before any transport happens
type composition struct {
	channel     models.Channel
	subject     *string
	message     string
	payload     *TransmitPayload
	measurement *Measurement
}

// Send performs one complete send: prepare, transmit, finalize.
// Configuration problems (unknown or inactive purpose, missing
// template, invalid request) surface as errors before any log row or
// gateway call exists. Transport failures do not: they are captured in
// the finalized FAILED log, which is always the record of truth.
func (s *DispatchService) Send(ctx context.Context, req *models.DispatchRequest) (*models.MessageLog, error) {
	logRow, purpose, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.transmitAndFinalize(ctx, logRow, purpose); err != nil {
		return nil, err
	}

	return logRow, nil
}

// Prepare executes the local half of the state machine: resolve the
// purpose, render, size, decide the channel, and persist a PENDING log
// with every immutable field populated. Batch and scheduled flows call
// this directly and transmit later.
func (s *DispatchService) Prepare(ctx context.Context, req *models.DispatchRequest) (*models.MessageLog, *models.Purpose, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, &ValidationError{Message: err.Error()}
	}

	purpose, err := s.purposes.ResolveActive(ctx, req.PurposeCode)
	if err != nil {
		return nil, nil, err
	}

	comp, err := s.compose(purpose, purpose.DefaultChannel, req.Variables)
	if err != nil {
		return nil, nil, err
	}

	logRow, err := s.newPendingLog(req, comp)
	if err != nil {
		return nil, nil, err
	}

	if err := s.logRepo.Create(ctx, logRow); err != nil {
		return nil, nil, err
	}

	log.Printf("Dispatch prepared: log=%d purpose=%s channel=%s to=%s", logRow.ID, req.PurposeCode, comp.channel, req.ToPhone)
	return logRow, purpose, nil
}

// TransmitPending executes the transport half for a stored PENDING log,
// used by the queue worker and the scheduled-dispatch poller. The
// gateway payload is rebuilt from the request JSON recorded at
// preparation time.
func (s *DispatchService) TransmitPending(ctx context.Context, logRow *models.MessageLog) error {
	if logRow.Status != models.MessageStatusPending {
		return &BusinessLogicError{Message: fmt.Sprintf("message log %d is already %s", logRow.ID, logRow.Status)}
	}

	purpose, err := s.purposes.Resolve(ctx, logRow.PurposeCode)
	if err != nil {
		return err
	}

	return s.transmitAndFinalize(ctx, logRow, purpose)
}

// compose renders and sizes the message for the candidate channel and
// builds the gateway payload. Chat templates are pre-approved payloads
// rendered provider-side, so they skip local rendering and sizing.
func (s *DispatchService) compose(purpose *models.Purpose, candidate models.Channel, variables map[string]interface{}) (*composition, error) {
	if candidate == models.ChannelChatTemplate {
		return s.composeChat(purpose, variables)
	}
	return s.composeText(purpose, candidate, variables)
}

// composeChat builds a chat-template payload keyed by the purpose's
// pre-approved template code
func (s *DispatchService) composeChat(purpose *models.Purpose, variables map[string]interface{}) (*composition, error) {
	if purpose.ChatTemplateCode == nil || *purpose.ChatTemplateCode == "" {
		return nil, &TemplateError{
			PurposeCode: purpose.Code,
			Channel:     string(models.ChannelChatTemplate),
			Message:     "no chat template code configured",
		}
	}

	// The body is provider-rendered; record the template code as the
	// body reference in the log.
	return &composition{
		channel: models.ChannelChatTemplate,
		message: *purpose.ChatTemplateCode,
		payload: &TransmitPayload{
			Channel:      models.ChannelChatTemplate,
			FromPhone:    s.opts.SenderNumber,
			Message:      *purpose.ChatTemplateCode,
			TemplateCode: purpose.ChatTemplateCode,
			Variables:    variables,
		},
	}, nil
}

// composeText renders the purpose's template for a text channel, sizes
// the result and auto-promotes SHORT_TEXT to LONG_TEXT when the body
// outgrows the short tier. Never demotes, never drops content.
func (s *DispatchService) composeText(purpose *models.Purpose, candidate models.Channel, variables map[string]interface{}) (*composition, error) {
	template := purpose.TemplateFor(candidate)
	if template == nil || *template == "" {
		return nil, &TemplateError{
			PurposeCode: purpose.Code,
			Channel:     string(candidate),
			Message:     "no template body configured",
		}
	}

	rendered, unresolved := s.templates.Render(*template, variables)
	if len(unresolved) > 0 {
		// Warning, not a failure: the literal placeholder text goes out
		// so operators can detect malformed templates.
		log.Printf("WARN: unresolved placeholders for purpose %s: %v", purpose.Code, unresolved)
	}

	measurement := s.sizer.Classify(rendered)
	if measurement.SizeExceeded {
		log.Printf("WARN: message for purpose %s exceeds long-text capacity: %d bytes", purpose.Code, measurement.ByteCount)
	}

	channel := candidate
	if channel == models.ChannelShortText && measurement.Tier == models.SizeTierLongText {
		log.Printf("Auto-promoting purpose %s from SHORT_TEXT to LONG_TEXT: %d bytes", purpose.Code, measurement.ByteCount)
		channel = models.ChannelLongText
	}

	var subject *string
	if channel == models.ChannelLongText {
		subj := purpose.LongSubjectOrDefault(s.opts.DefaultSubject)
		subject = &subj
	}

	return &composition{
		channel:     channel,
		subject:     subject,
		message:     rendered,
		measurement: &measurement,
		payload: &TransmitPayload{
			Channel:   channel,
			FromPhone: s.opts.SenderNumber,
			Subject:   subject,
			Message:   rendered,
		},
	}, nil
}

// newPendingLog builds the PENDING message log for a composition
func (s *DispatchService) newPendingLog(req *models.DispatchRequest, comp *composition) (*models.MessageLog, error) {
	comp.payload.ToPhone = req.ToPhone

	requestJSON, err := marshalPayload(comp.payload)
	if err != nil {
		return nil, err
	}

	logRow := &models.MessageLog{
		Channel:      comp.channel,
		SendType:     req.SendType,
		ToPhone:      req.ToPhone,
		ToName:       req.ToName,
		ToType:       req.ToType,
		FromPhone:    s.opts.SenderNumber,
		Subject:      comp.subject,
		Message:      comp.message,
		TemplateCode: comp.payload.TemplateCode,
		PurposeCode:  req.PurposeCode,
		RefType:      req.RefType,
		RefID:        req.RefID,
		BatchID:      req.BatchID,
		BatchSeq:     req.BatchSeq,
		ScheduledAt:  req.ScheduledAt,
		RequestJSON:  requestJSON,
		CreatedBy:    req.CreatedBy,
		Status:       models.MessageStatusPending,
		Provider:     s.gateway.Name(),
	}

	if comp.measurement != nil {
		logRow.CharacterCount = &comp.measurement.CharacterCount
		logRow.ByteCount = &comp.measurement.ByteCount
		logRow.SizeExceeded = comp.measurement.SizeExceeded
	}

	return logRow, nil
}

// transmitAndFinalize invokes the gateway and finalizes the log.
// A failed chat-template attempt falls back to the purpose's configured
// text channel at most once; the same log row is rewritten to the final
// channel before the second call, so exactly one row records the send.
func (s *DispatchService) transmitAndFinalize(ctx context.Context, logRow *models.MessageLog, purpose *models.Purpose) error {
	payload, err := unmarshalPayload(logRow.RequestJSON)
	if err != nil {
		return err
	}

	result, transmitErr := s.gateway.Transmit(ctx, payload)
	if transmitErr != nil && logRow.Channel == models.ChannelChatTemplate && purpose.HasFallback() {
		log.Printf("Chat-template transmit failed for log %d, falling back to %s: %v", logRow.ID, *purpose.FallbackChannel, transmitErr)

		fallbackComp, composeErr := s.composeText(purpose, *purpose.FallbackChannel, payload.Variables)
		if composeErr != nil {
			return s.finalizeFailed(ctx, logRow, composeErr)
		}

		if err := s.rewriteForFallback(ctx, logRow, fallbackComp); err != nil {
			return err
		}

		result, transmitErr = s.gateway.Transmit(ctx, fallbackComp.payload)
	}

	if transmitErr != nil {
		return s.finalizeFailed(ctx, logRow, transmitErr)
	}

	return s.finalizeSent(ctx, logRow, result)
}

// rewriteForFallback rewrites the pending log row to the fallback
// channel before the second gateway call
func (s *DispatchService) rewriteForFallback(ctx context.Context, logRow *models.MessageLog, comp *composition) error {
	comp.payload.ToPhone = logRow.ToPhone

	requestJSON, err := marshalPayload(comp.payload)
	if err != nil {
		return err
	}

	logRow.Channel = comp.channel
	logRow.Subject = comp.subject
	logRow.Message = comp.message
	logRow.TemplateCode = nil
	logRow.RequestJSON = requestJSON
	if comp.measurement != nil {
		logRow.CharacterCount = &comp.measurement.CharacterCount
		logRow.ByteCount = &comp.measurement.ByteCount
		logRow.SizeExceeded = comp.measurement.SizeExceeded
	}

	return s.logRepo.RewritePending(ctx, logRow)
}

// finalizeSent records a successful transmission
func (s *DispatchService) finalizeSent(ctx context.Context, logRow *models.MessageLog, result *TransmitResult) error {
	if err := logRow.MarkSent(result.ProviderMessageID, result.Cost, result.RawResponseJSON, s.now()); err != nil {
		return &BusinessLogicError{Message: err.Error()}
	}
	if err := s.logRepo.Finalize(ctx, logRow); err != nil {
		return err
	}
	log.Printf("Dispatch succeeded: log=%d channel=%s providerMessageId=%s", logRow.ID, logRow.Channel, result.ProviderMessageID)
	return nil
}

// finalizeFailed records a failed transmission. The failure is part of
// the returned log, not a bare error: callers inspect log.Status.
func (s *DispatchService) finalizeFailed(ctx context.Context, logRow *models.MessageLog, cause error) error {
	code, message, responseJSON := describeFailure(cause)
	if err := logRow.MarkFailed(code, message, responseJSON, s.now()); err != nil {
		return &BusinessLogicError{Message: err.Error()}
	}
	if err := s.logRepo.Finalize(ctx, logRow); err != nil {
		return err
	}
	log.Printf("Dispatch failed: log=%d channel=%s code=%s message=%s", logRow.ID, logRow.Channel, code, message)
	return nil
}

// describeFailure maps a transmission failure to log error fields
func describeFailure(err error) (code, message string, responseJSON *string) {
	switch e := err.(type) {
	case *TransportError:
		return e.Code, e.Message, e.Raw
	case *TemplateError:
		return "TEMPLATE_MISSING", e.Error(), nil
	default:
		return "TRANSPORT_ERROR", err.Error(), nil
	}
}

// marshalPayload serializes the gateway payload for the request_json column
func marshalPayload(payload *TransmitPayload) (*string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transmit payload: %w", err)
	}
	s := string(data)
	return &s, nil
}

// unmarshalPayload rebuilds the gateway payload from a stored log row
func unmarshalPayload(requestJSON *string) (*TransmitPayload, error) {
	if requestJSON == nil || *requestJSON == "" {
		return nil, fmt.Errorf("message log has no request payload")
	}
	payload := &TransmitPayload{}
	if err := json.Unmarshal([]byte(*requestJSON), payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transmit payload: %w", err)
	}
	return payload, nil
}
