package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"academymsg/internal/models"
	"academymsg/internal/service"
)

// PurposeHandler handles HTTP requests for purpose administration
type PurposeHandler struct {
	purposeService *service.PurposeService
}

// NewPurposeHandler creates a new purpose handler
func NewPurposeHandler(purposeService *service.PurposeService) *PurposeHandler {
	return &PurposeHandler{purposeService: purposeService}
}

// Create handles POST /purposes - creates a new purpose configuration
func (h *PurposeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var purpose models.Purpose

	if err := json.NewDecoder(r.Body).Decode(&purpose); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if err := h.purposeService.CreatePurpose(r.Context(), &purpose); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, purpose)
}

// List handles GET /purposes - lists purpose configurations
func (h *PurposeHandler) List(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("active") == "true"

	purposes, err := h.purposeService.ListPurposes(r.Context(), onlyActive)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, purposes)
}

// Get handles GET /purposes/{code} - retrieves one purpose
func (h *PurposeHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	purpose, err := h.purposeService.Resolve(r.Context(), code)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, purpose)
}

// Update handles PUT /purposes/{code} - updates a purpose configuration
func (h *PurposeHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var purpose models.Purpose
	if err := json.NewDecoder(r.Body).Decode(&purpose); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	// The code in the path wins over any code in the body
	purpose.Code = code

	if err := h.purposeService.UpdatePurpose(r.Context(), &purpose); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, purpose)
}

// ToggleActive handles POST /purposes/{code}/toggle - flips the active flag
func (h *PurposeHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	isActive, err := h.purposeService.ToggleActive(r.Context(), code)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, map[string]interface{}{
		"code":      code,
		"is_active": isActive,
	})
}
