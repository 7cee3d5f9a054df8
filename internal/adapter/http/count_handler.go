package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/YelzhanWeb/cafestock/internal/adapter/logger"
	"github.com/YelzhanWeb/cafestock/internal/domain"
	"github.com/YelzhanWeb/cafestock/internal/interfaces"
)

type CountHandler struct {
	service interfaces.CountingService
	logger  logger.Logger
}

func NewCountHandler(service interfaces.CountingService, logger logger.Logger) *CountHandler {
	return &CountHandler{
		service: service,
		logger:  logger,
	}
}

type StartSessionRequest struct {
	LocationID int `json:"location_id"`
}

type SetCountRequest struct {
	ItemID          int  `json:"item_id"`
	CountedQuantity *int `json:"counted_quantity,omitempty"`
	FlaggedForOrder *bool `json:"flagged_for_order,omitempty"`
}

type SubmitRequest struct {
	SubmittedBy string  `json:"submitted_by"`
	Note        *string `json:"note,omitempty"`
}

type CountEntryResponse struct {
	ItemID          int  `json:"item_id"`
	CountedQuantity int  `json:"counted_quantity"`
	FlaggedForOrder bool `json:"flagged_for_order"`
}

// HandleSessions serves POST /sessions.
func (h *CountHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sessionID, err := h.service.StartSession(r.Context(), req.LocationID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
}

// HandleSession serves the per-session subresources:
// GET  /sessions/{id}/entries
// PATCH /sessions/{id}/counts  (quantity and/or flag for one item)
// POST /sessions/{id}/submit
func (h *CountHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid path"})
		return
	}

	sessionID := parts[1]

	switch {
	case parts[2] == "entries" && r.Method == http.MethodGet:
		h.entries(w, r, sessionID)
	case parts[2] == "counts" && r.Method == http.MethodPatch:
		h.setCount(w, r, sessionID)
	case parts[2] == "submit" && r.Method == http.MethodPost:
		h.submit(w, r, sessionID)
	default:
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
}

func (h *CountHandler) entries(w http.ResponseWriter, r *http.Request, sessionID string) {
	entries, err := h.service.SessionEntries(r.Context(), sessionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]CountEntryResponse, len(entries))
	for i, entry := range entries {
		resp[i] = toEntryResponse(entry)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CountHandler) setCount(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req SetCountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.CountedQuantity == nil && req.FlaggedForOrder == nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "counted_quantity or flagged_for_order is required"})
		return
	}

	var entry domain.CountEntry
	var err error

	// Quantity first: it recomputes the flag for quantity-based items,
	// and an explicit flag in the same request then overrides it.
	if req.CountedQuantity != nil {
		entry, err = h.service.SetCount(r.Context(), sessionID, req.ItemID, *req.CountedQuantity)
		if err != nil {
			respondDomainError(w, err)
			return
		}
	}
	if req.FlaggedForOrder != nil {
		entry, err = h.service.SetFlag(r.Context(), sessionID, req.ItemID, *req.FlaggedForOrder)
		if err != nil {
			respondDomainError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *CountHandler) submit(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.service.Submit(r.Context(), interfaces.SubmitOrderCommand{
		SessionID:   sessionID,
		SubmittedBy: strings.TrimSpace(req.SubmittedBy),
		Note:        req.Note,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(order))
}

func toEntryResponse(entry domain.CountEntry) CountEntryResponse {
	return CountEntryResponse{
		ItemID:          entry.ItemID,
		CountedQuantity: entry.CountedQuantity,
		FlaggedForOrder: entry.FlaggedForOrder,
	}
}
