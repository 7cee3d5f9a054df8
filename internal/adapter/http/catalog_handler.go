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

type CatalogHandler struct {
	service interfaces.CatalogService
	logger  logger.Logger
}

func NewCatalogHandler(service interfaces.CatalogService, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

type CreateItemRequest struct {
	Name             string `json:"name"`
	Unit             string `json:"unit"`
	MinimumThreshold int    `json:"minimum_threshold"`
	PresenceOnly     bool   `json:"presence_only"`
	CategoryID       *int   `json:"category_id,omitempty"`
	SupplierID       *int   `json:"supplier_id,omitempty"`
}

type UpdateItemRequest struct {
	Name             string `json:"name"`
	Unit             string `json:"unit"`
	MinimumThreshold int    `json:"minimum_threshold"`
	Hidden           bool   `json:"hidden"`
}

type ItemResponse struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Unit             string     `json:"unit"`
	MinimumThreshold int        `json:"minimum_threshold"`
	PresenceOnly     bool       `json:"presence_only"`
	Hidden           bool       `json:"hidden"`
	SortRank         int        `json:"sort_rank"`
	CategoryID       *int       `json:"category_id"`
	SupplierID       *int       `json:"supplier_id"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

type ReorderRequest struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

type AutoSortRequest struct {
	Field string `json:"field"`
}

type NameRequest struct {
	Name string `json:"name"`
}

// HandleItems serves /items: POST creates, GET lists by rank.
func (h *CatalogHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createItem(w, r)
	case http.MethodGet:
		h.listItems(w, r)
	default:
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
	}
}

// HandleItem serves /items/{id} and its lifecycle subresources:
// PUT /items/{id}, DELETE /items/{id} (soft), POST /items/{id}/restore,
// DELETE /items/{id}/permanent (destroys order history).
func (h *CatalogHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid path"})
		return
	}

	id, err := strconv.Atoi(parts[1])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodPut:
		h.updateItem(w, r, id)
	case len(parts) == 2 && r.Method == http.MethodDelete:
		h.softDeleteItem(w, r, id)
	case len(parts) == 3 && parts[2] == "restore" && r.Method == http.MethodPost:
		h.restoreItem(w, r, id)
	case len(parts) == 3 && parts[2] == "permanent" && r.Method == http.MethodDelete:
		h.hardDeleteItem(w, r, id)
	default:
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
}

// HandleCollections serves the ranked collections:
// GET /collections/{name} returns the rank-sorted view,
// POST /collections/{name}/reorder splices one member to a new position,
// POST /collections/items/auto-sort bulk-assigns ranks from a field sort.
func (h *CatalogHandler) HandleCollections(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid path"})
		return
	}

	collection := domain.Collection(parts[1])

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.listCollection(w, r, collection)
	case len(parts) == 3 && parts[2] == "reorder" && r.Method == http.MethodPost:
		h.reorder(w, r, collection)
	case len(parts) == 3 && parts[2] == "auto-sort" && r.Method == http.MethodPost && collection == domain.CollectionItems:
		h.autoSort(w, r)
	default:
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
}

func (h *CatalogHandler) createItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	item, err := h.service.CreateItem(r.Context(), interfaces.CreateItemCommand{
		Name:             strings.TrimSpace(req.Name),
		Unit:             strings.TrimSpace(req.Unit),
		MinimumThreshold: req.MinimumThreshold,
		PresenceOnly:     req.PresenceOnly,
		CategoryID:       req.CategoryID,
		SupplierID:       req.SupplierID,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *CatalogHandler) listItems(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	items, err := h.service.ListItems(r.Context(), includeDeleted)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]ItemResponse, len(items))
	for i, item := range items {
		resp[i] = toItemResponse(item)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) updateItem(w http.ResponseWriter, r *http.Request, id int) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	item, err := h.service.UpdateItem(r.Context(), interfaces.UpdateItemCommand{
		ID:               id,
		Name:             strings.TrimSpace(req.Name),
		Unit:             strings.TrimSpace(req.Unit),
		MinimumThreshold: req.MinimumThreshold,
		Hidden:           req.Hidden,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *CatalogHandler) softDeleteItem(w http.ResponseWriter, r *http.Request, id int) {
	if err := h.service.SoftDeleteItem(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) restoreItem(w http.ResponseWriter, r *http.Request, id int) {
	if err := h.service.RestoreItem(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) hardDeleteItem(w http.ResponseWriter, r *http.Request, id int) {
	if err := h.service.HardDeleteItem(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"deleted": id,
		"warning": "item and its order history were permanently destroyed",
	})
}

func (h *CatalogHandler) listCollection(w http.ResponseWriter, r *http.Request, collection domain.Collection) {
	if !collection.Valid() {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown collection"})
		return
	}

	records, err := h.service.ListCollection(r.Context(), collection)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

func (h *CatalogHandler) reorder(w http.ResponseWriter, r *http.Request, collection domain.Collection) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	records, err := h.service.Reorder(r.Context(), interfaces.ReorderCommand{
		Collection: collection,
		FromIndex:  req.FromIndex,
		ToIndex:    req.ToIndex,
	})
	if err != nil {
		// A mid-sequence persistence failure still returns the
		// reloaded authoritative collection so the client can
		// re-render truth instead of its optimistic view.
		if records != nil {
			respondJSON(w, http.StatusConflict, map[string]any{
				"error":   "reorder failed, collection reloaded",
				"records": records,
			})
			return
		}
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

func (h *CatalogHandler) autoSort(w http.ResponseWriter, r *http.Request) {
	var req AutoSortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	records, err := h.service.AutoSortItems(r.Context(), interfaces.ItemSortField(req.Field))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// HandleCategories, HandleSuppliers and HandleLocations create members
// of the remaining ranked collections.
func (h *CatalogHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.createNamed(w, r, func(ctx *http.Request, name string) (any, error) {
		return h.service.CreateCategory(ctx.Context(), name)
	})
}

func (h *CatalogHandler) HandleSuppliers(w http.ResponseWriter, r *http.Request) {
	h.createNamed(w, r, func(ctx *http.Request, name string) (any, error) {
		return h.service.CreateSupplier(ctx.Context(), name)
	})
}

func (h *CatalogHandler) HandleLocations(w http.ResponseWriter, r *http.Request) {
	h.createNamed(w, r, func(ctx *http.Request, name string) (any, error) {
		return h.service.CreateLocation(ctx.Context(), name)
	})
}

func (h *CatalogHandler) createNamed(w http.ResponseWriter, r *http.Request, create func(*http.Request, string) (any, error)) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	created, err := create(r, strings.TrimSpace(req.Name))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func toItemResponse(item *domain.CatalogItem) ItemResponse {
	return ItemResponse{
		ID:               item.ID,
		Name:             item.Name,
		Unit:             item.Unit,
		MinimumThreshold: item.MinimumThreshold,
		PresenceOnly:     item.PresenceOnly,
		Hidden:           item.Hidden,
		SortRank:         item.SortRank,
		CategoryID:       item.CategoryID,
		SupplierID:       item.SupplierID,
		DeletedAt:        item.DeletedAt,
	}
}
