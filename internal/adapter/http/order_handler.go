package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/YelzhanWeb/cafestock/internal/adapter/logger"
	"github.com/YelzhanWeb/cafestock/internal/domain"
	"github.com/YelzhanWeb/cafestock/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.FulfillmentService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.FulfillmentService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type ToggleLineRequest struct {
	LineID int    `json:"line_id"`
	Actor  string `json:"actor"`
}

type OverrideStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

type ActorRequest struct {
	Actor string `json:"actor"`
}

type OrderResponse struct {
	ID          int                 `json:"id"`
	LocationID  int                 `json:"location_id"`
	SubmittedBy string              `json:"submitted_by"`
	Note        *string             `json:"note"`
	Status      domain.Status       `json:"status"`
	Archived    bool                `json:"archived"`
	Lines       []OrderLineResponse `json:"lines"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type OrderLineResponse struct {
	ID               int        `json:"id"`
	ItemID           int        `json:"item_id"`
	ItemName         string     `json:"item_name"`
	CountedQuantity  int        `json:"counted_quantity"`
	MinimumThreshold int        `json:"minimum_threshold"`
	PresenceOnly     bool       `json:"presence_only"`
	NeedsOrdering    bool       `json:"needs_ordering"`
	Fulfilled        bool       `json:"fulfilled"`
	FulfilledBy      *string    `json:"fulfilled_by"`
	FulfilledAt      *time.Time `json:"fulfilled_at"`
}

// HandleOrders serves GET /orders (?include_archived=true).
func (h *OrderHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	includeArchived := r.URL.Query().Get("include_archived") == "true"

	orders, err := h.service.ListOrders(r.Context(), includeArchived)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i, order := range orders {
		resp[i] = toOrderResponse(order)
	}
	respondJSON(w, http.StatusOK, resp)
}

// HandleOrder serves the per-order subresources:
// GET  /orders/{id}
// GET  /orders/{id}/history
// POST /orders/{id}/toggle
// POST /orders/{id}/clear
// POST /orders/{id}/status   (manual override, advisory)
// POST /orders/{id}/archive, POST /orders/{id}/unarchive
func (h *OrderHandler) HandleOrder(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid path"})
		return
	}

	orderID, err := strconv.Atoi(parts[1])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.getOrder(w, r, orderID)
	case len(parts) == 3 && parts[2] == "history" && r.Method == http.MethodGet:
		h.history(w, r, orderID)
	case len(parts) == 3 && parts[2] == "toggle" && r.Method == http.MethodPost:
		h.toggle(w, r, orderID)
	case len(parts) == 3 && parts[2] == "clear" && r.Method == http.MethodPost:
		h.clear(w, r, orderID)
	case len(parts) == 3 && parts[2] == "status" && r.Method == http.MethodPost:
		h.overrideStatus(w, r, orderID)
	case len(parts) == 3 && parts[2] == "archive" && r.Method == http.MethodPost:
		h.setArchived(w, r, orderID, true)
	case len(parts) == 3 && parts[2] == "unarchive" && r.Method == http.MethodPost:
		h.setArchived(w, r, orderID, false)
	default:
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request, orderID int) {
	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) history(w http.ResponseWriter, r *http.Request, orderID int) {
	history, err := h.service.StatusHistory(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]map[string]interface{}, len(history))
	for i, log := range history {
		resp[i] = map[string]interface{}{
			"status":     log.Status,
			"changed_by": log.ChangedBy,
			"changed_at": log.ChangedAt,
			"manual":     log.Manual,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) toggle(w http.ResponseWriter, r *http.Request, orderID int) {
	var req ToggleLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Actor == "" {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "actor is required"})
		return
	}

	order, err := h.service.ToggleLine(r.Context(), orderID, req.LineID, req.Actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) clear(w http.ResponseWriter, r *http.Request, orderID int) {
	var req ActorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.service.ClearAll(r.Context(), orderID, req.Actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) overrideStatus(w http.ResponseWriter, r *http.Request, orderID int) {
	var req OverrideStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.service.OverrideStatus(r.Context(), orderID, domain.Status(req.Status), req.Actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) setArchived(w http.ResponseWriter, r *http.Request, orderID int, archived bool) {
	order, err := h.service.SetArchived(r.Context(), orderID, archived)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func toOrderResponse(order *domain.Order) OrderResponse {
	lines := order.DisplayLines()
	resp := OrderResponse{
		ID:          order.ID,
		LocationID:  order.LocationID,
		SubmittedBy: order.SubmittedBy,
		Note:        order.Note,
		Status:      order.Status,
		Archived:    order.Archived,
		Lines:       make([]OrderLineResponse, len(lines)),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
	for i, line := range lines {
		resp.Lines[i] = OrderLineResponse{
			ID:               line.ID,
			ItemID:           line.ItemID,
			ItemName:         line.ItemName,
			CountedQuantity:  line.CountedQuantity,
			MinimumThreshold: line.MinimumThreshold,
			PresenceOnly:     line.PresenceOnly,
			NeedsOrdering:    line.NeedsOrdering,
			Fulfilled:        line.Fulfilled,
			FulfilledBy:      line.FulfilledBy,
			FulfilledAt:      line.FulfilledAt,
		}
	}
	return resp
}
