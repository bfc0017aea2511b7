package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"academymsg/internal/models"
	"academymsg/internal/repository"
	"academymsg/internal/service"
)

// LogHandler handles HTTP requests for the message log audit surface
type LogHandler struct {
	logService *service.MessageLogService
}

// NewLogHandler creates a new log handler
func NewLogHandler(logService *service.MessageLogService) *LogHandler {
	return &LogHandler{logService: logService}
}

// ListResponse wraps a log list with pagination info
type ListResponse struct {
	Logs       []*models.MessageLog    `json:"logs"`
	Pagination *service.PaginationInfo `json:"pagination"`
}

// List handles GET /message-logs - lists logs with filters
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := repository.LogFilters{
		Page:     1,
		PageSize: 20,
	}

	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filters.Page = p
		}
	}

	if perPageStr := query.Get("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 {
			filters.PageSize = pp
		}
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	if phone := query.Get("to_phone"); phone != "" {
		filters.ToPhone = &phone
	}

	if purposeCode := query.Get("purpose_code"); purposeCode != "" {
		filters.PurposeCode = &purposeCode
	}

	if channelStr := query.Get("channel"); channelStr != "" {
		channel := models.Channel(channelStr)
		if !channel.IsValid() {
			WriteValidationError(w, "invalid channel filter")
			return
		}
		filters.Channel = &channel
	}

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.MessageStatus(statusStr)
		filters.Status = &status
	}

	if fromStr := query.Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			WriteValidationError(w, "invalid 'from' timestamp: expected RFC3339")
			return
		}
		filters.From = &from
	}

	if toStr := query.Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			WriteValidationError(w, "invalid 'to' timestamp: expected RFC3339")
			return
		}
		filters.To = &to
	}

	logs, pagination, err := h.logService.ListLogs(r.Context(), filters)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, ListResponse{Logs: logs, Pagination: pagination})
}

// Get handles GET /message-logs/{id} - retrieves one log
func (h *LogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		WriteValidationError(w, "invalid message log ID")
		return
	}

	logRow, err := h.logService.GetLog(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, logRow)
}

// GetByProviderMessageID handles GET /message-logs/provider/{providerMessageId}
func (h *LogHandler) GetByProviderMessageID(w http.ResponseWriter, r *http.Request) {
	providerMessageID := mux.Vars(r)["providerMessageId"]

	logRow, err := h.logService.GetLogByProviderMessageID(r.Context(), providerMessageID)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, logRow)
}

// GetBatch handles GET /message-logs/batch/{batchId} - lists batch members in sequence order
func (h *LogHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchId"]

	logs, err := h.logService.GetBatchLogs(r.Context(), batchID)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, logs)
}

// GetByReference handles GET /message-logs/ref/{refType}/{refId}
func (h *LogHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	refID, err := strconv.ParseInt(vars["refId"], 10, 64)
	if err != nil {
		WriteValidationError(w, "invalid reference ID")
		return
	}

	logs, err := h.logService.GetReferenceLogs(r.Context(), vars["refType"], refID)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, logs)
}

// Statistics handles GET /message-logs/statistics - aggregates over a time range
func (h *LogHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	to := time.Now()
	from := to.AddDate(0, -1, 0) // default: last month

	if fromStr := query.Get("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			WriteValidationError(w, "invalid 'from' timestamp: expected RFC3339")
			return
		}
		from = parsed
	}

	if toStr := query.Get("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			WriteValidationError(w, "invalid 'to' timestamp: expected RFC3339")
			return
		}
		to = parsed
	}

	byPurpose, err := h.logService.GetStatisticsByPurpose(r.Context(), from, to)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	byChannel, err := h.logService.GetStatisticsByChannel(r.Context(), from, to)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]interface{}{
		"from":       from,
		"to":         to,
		"by_purpose": byPurpose,
		"by_channel": byChannel,
	})
}
