package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"academymsg/internal/models"
	"academymsg/internal/service"
)

// DispatchHandler handles HTTP requests for message dispatch operations
type DispatchHandler struct {
	dispatchService *service.DispatchService
	batchService    *service.BatchService
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(dispatchService *service.DispatchService, batchService *service.BatchService) *DispatchHandler {
	return &DispatchHandler{
		dispatchService: dispatchService,
		batchService:    batchService,
	}
}

// BatchRequest is the payload for POST /messages/batch
type BatchRequest struct {
	SendType    models.SendType           `json:"send_type"`
	ScheduledAt *time.Time                `json:"scheduled_at,omitempty"`
	Messages    []*models.DispatchRequest `json:"messages"`
}

// Send handles POST /messages/send - dispatches a single message immediately
func (h *DispatchHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.DispatchRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if req.SendType == "" {
		req.SendType = models.SendTypeImmediate
	}

	logRow, err := h.dispatchService.Send(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	// Transport failures are part of the log, not an HTTP error:
	// the finalized log is the record of truth either way.
	WriteCreated(w, logRow)
}

// SendBatch handles POST /messages/batch - groups messages under one batch
func (h *DispatchHandler) SendBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if req.SendType == "" {
		req.SendType = models.SendTypeBatch
	}

	batch, err := h.batchService.Enqueue(r.Context(), req.Messages, req.SendType, req.ScheduledAt)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, batch)
}

// CancelScheduled handles DELETE /messages/scheduled/{id} - cancels a
// scheduled send that has not been transmitted yet
func (h *DispatchHandler) CancelScheduled(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		WriteValidationError(w, "invalid message log ID")
		return
	}

	if err := h.batchService.CancelScheduled(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}
