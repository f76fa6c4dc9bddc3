// Package api provides HTTP handlers for the packlist API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/artpar/packlist/internal/core/composition"
	"github.com/artpar/packlist/internal/core/domain"
	"github.com/artpar/packlist/internal/shell/api/openapi"
	"github.com/artpar/packlist/internal/shell/inventory"
	"github.com/artpar/packlist/internal/shell/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	inventory *inventory.Service
	openapi   *openapi.Generator
	logger    *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *inventory.Service, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	return &Handler{
		inventory: svc,
		openapi:   NewOpenAPIGenerator(),
		logger:    l,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health and description
	r.Get("/health", h.handleHealth)
	r.Get("/openapi.json", h.openapi.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/defaults", h.handleDefaults)

		// Item routes
		r.Route("/items", func(r chi.Router) {
			r.Post("/", h.handleCreateItem)
			r.Get("/", h.handleListItems)
			r.Get("/{id}", h.handleGetItem)
			r.Put("/{id}", h.handleUpdateItem)
			r.Delete("/{id}", h.handleDeleteItem)
		})

		// Pack routes
		r.Route("/packs", func(r chi.Router) {
			r.Post("/", h.handleCreatePack)
			r.Get("/", h.handleListPacks)
			r.Get("/{id}", h.handleGetPack)
			r.Put("/{id}", h.handleUpdatePack)
			r.Delete("/{id}", h.handleDeletePack)
			r.Get("/{id}/attributes", h.handleResolveAttributes)
			r.Get("/{id}/items", h.handleListPackItems)
			r.Put("/{id}/items", h.handleSetItemSelections)
			r.Get("/{id}/packs", h.handleListPackPacks)
			r.Put("/{id}/packs", h.handleSetPackSelections)
			r.Get("/{id}/cycle-check/{candidate}", h.handleCycleCheck)
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health and Defaults Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.inventory.Defaults())
}

// =============================================================================
// Item Handlers
// =============================================================================

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	item, err := h.inventory.CreateItem(r.Context(), itemInput(req))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create item")
		return
	}

	h.writeJSON(w, http.StatusCreated, itemToResponse(item))
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)

	items, err := h.inventory.ListItems(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list items")
		return
	}

	resp := ListItemsResponse{
		Items:  make([]ItemResponse, 0, len(items)),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	for i := range items {
		resp.Items = append(resp.Items, itemToResponse(&items[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.inventory.GetItem(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to get item")
		return
	}

	h.writeJSON(w, http.StatusOK, itemToResponse(item))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	item, err := h.inventory.UpdateItem(r.Context(), id, itemInput(req))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update item")
		return
	}

	h.writeJSON(w, http.StatusOK, itemToResponse(item))
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.inventory.DeleteItem(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "failed to delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Pack Handlers
// =============================================================================

func (h *Handler) handleCreatePack(w http.ResponseWriter, r *http.Request) {
	var req PackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	in, err := packInput(req)
	if err != nil {
		h.writeServiceError(w, r, err, "invalid selection")
		return
	}

	pack, err := h.inventory.CreatePack(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create pack")
		return
	}

	h.writeJSON(w, http.StatusCreated, packToResponse(pack))
}

func (h *Handler) handleListPacks(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)

	packs, err := h.inventory.ListPacks(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list packs")
		return
	}

	resp := ListPacksResponse{
		Packs:  make([]PackResponse, 0, len(packs)),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	for i := range packs {
		resp.Packs = append(resp.Packs, packToResponse(&packs[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPack(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	pack, err := h.inventory.GetPack(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to get pack")
		return
	}

	h.writeJSON(w, http.StatusOK, packToResponse(pack))
}

func (h *Handler) handleUpdatePack(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req PackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	in, err := packInput(req)
	if err != nil {
		h.writeServiceError(w, r, err, "invalid selection")
		return
	}

	pack, err := h.inventory.UpdatePack(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update pack")
		return
	}

	h.writeJSON(w, http.StatusOK, packToResponse(pack))
}

func (h *Handler) handleDeletePack(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.inventory.DeletePack(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "failed to delete pack")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Composition Handlers
// =============================================================================

func (h *Handler) handleResolveAttributes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	attrs, err := h.inventory.ResolveAttributes(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to resolve pack")
		return
	}

	h.writeJSON(w, http.StatusOK, h.attributesToResponse(attrs))
}

func (h *Handler) handleCycleCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	candidate, ok := h.pathID(w, r, "candidate")
	if !ok {
		return
	}

	cycle, err := h.inventory.WouldCreateCycle(r.Context(), id, candidate)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to check cycle")
		return
	}

	h.writeJSON(w, http.StatusOK, CycleCheckResponse{
		PackID:      id,
		CandidateID: candidate,
		WouldCycle:  cycle,
	})
}

// =============================================================================
// Membership Handlers
// =============================================================================

func (h *Handler) handleListPackItems(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	included, ok := h.includedParam(w, r)
	if !ok {
		return
	}

	h.writeItemEntries(w, r, id, included)
}

// writeItemEntries answers with the items in (or not in) a pack.
func (h *Handler) writeItemEntries(w http.ResponseWriter, r *http.Request, id int64, included bool) {
	var (
		entries []composition.ItemEntry
		err     error
	)
	if included {
		entries, err = h.inventory.ItemsIn(r.Context(), id)
	} else {
		entries, err = h.inventory.ItemsNotIn(r.Context(), id)
	}
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list pack items")
		return
	}

	resp := ItemEntriesResponse{
		PackID:   id,
		Included: included,
		Items:    make([]ItemEntryResponse, 0, len(entries)),
	}
	for i := range entries {
		resp.Items = append(resp.Items, ItemEntryResponse{
			ItemResponse: itemToResponse(&entries[i].Item),
			Selected:     entries[i].Selected,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListPackPacks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	included, ok := h.includedParam(w, r)
	if !ok {
		return
	}

	h.writePackEntries(w, r, id, included)
}

func (h *Handler) writePackEntries(w http.ResponseWriter, r *http.Request, id int64, included bool) {
	var (
		entries []composition.PackEntry
		err     error
	)
	if included {
		entries, err = h.inventory.PacksIn(r.Context(), id)
	} else {
		entries, err = h.inventory.PacksNotIn(r.Context(), id)
	}
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list pack sub-packs")
		return
	}

	resp := PackEntriesResponse{
		PackID:   id,
		Included: included,
		Packs:    make([]PackEntryResponse, 0, len(entries)),
	}
	for i := range entries {
		resp.Packs = append(resp.Packs, PackEntryResponse{
			PackResponse: packToResponse(&entries[i].Pack),
			Selected:     entries[i].Selected,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSetItemSelections(w http.ResponseWriter, r *http.Request) {
	req, ok := h.selectionRequest(w, r)
	if !ok {
		return
	}

	if err := h.inventory.SetItemSelections(r.Context(), req.packID, req.selection); err != nil {
		h.writeServiceError(w, r, err, "failed to set item selections")
		return
	}

	h.writeItemEntries(w, r, req.packID, req.included)
}

func (h *Handler) handleSetPackSelections(w http.ResponseWriter, r *http.Request) {
	req, ok := h.selectionRequest(w, r)
	if !ok {
		return
	}

	if err := h.inventory.SetPackSelections(r.Context(), req.packID, req.selection); err != nil {
		h.writeServiceError(w, r, err, "failed to set pack selections")
		return
	}

	h.writePackEntries(w, r, req.packID, req.included)
}

// selectionPut is a parsed PUT of a pack's selections.
type selectionPut struct {
	packID    int64
	included  bool
	selection domain.Selection
}

// selectionRequest parses everything a selection PUT carries, including the
// ?included= of the response, so nothing is written for a malformed request.
func (h *Handler) selectionRequest(w http.ResponseWriter, r *http.Request) (selectionPut, bool) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return selectionPut{}, false
	}
	included, ok := h.includedParam(w, r)
	if !ok {
		return selectionPut{}, false
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return selectionPut{}, false
	}

	sel, err := domain.NewSelection(req.Selections)
	if err != nil {
		h.writeServiceError(w, r, err, "invalid selection")
		return selectionPut{}, false
	}

	return selectionPut{packID: id, included: included, selection: sel}, true
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeServiceError maps domain and store errors to HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case isNotFound(err):
		h.writeError(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, domain.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
	case isIntegrityViolation(err):
		h.writeError(w, http.StatusConflict, err.Error(), "integrity_violation")
	case errors.Is(err, domain.ErrInvariantBroken):
		h.logger.Error("invariant broken", "path", r.URL.Path, "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error(), "invariant_broken")
	default:
		h.logger.Error(fallback, "path", r.URL.Path, "error", err)
		h.writeError(w, http.StatusInternalServerError, fallback, "internal_error")
	}
}

// pathID parses a positive integer URL parameter, writing 400 on failure.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid "+name, "validation_error")
		return 0, false
	}
	return id, true
}

// includedParam parses ?included=, which defaults to true.
func (h *Handler) includedParam(w http.ResponseWriter, r *http.Request) (bool, bool) {
	raw := r.URL.Query().Get("included")
	if raw == "" {
		return true, true
	}
	included, err := strconv.ParseBool(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "included must be true or false", "validation_error")
		return false, false
	}
	return included, true
}

func listOptions(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		opts.Offset = offset
	}
	return opts.Normalize()
}

func itemInput(req ItemRequest) inventory.ItemInput {
	return inventory.ItemInput{
		Name:     req.Name,
		Function: req.Function,
		Weight:   req.Weight,
		Volume:   req.Volume,
		Price:    req.Price,
		Amount:   req.Amount,
	}
}

func packInput(req PackRequest) (inventory.PackInput, error) {
	in := inventory.PackInput{Name: req.Name, Function: req.Function}
	if req.Items != nil {
		sel, err := domain.NewSelection(req.Items)
		if err != nil {
			return inventory.PackInput{}, err
		}
		in.Items = &sel
	}
	if req.Packs != nil {
		sel, err := domain.NewSelection(req.Packs)
		if err != nil {
			return inventory.PackInput{}, err
		}
		in.Packs = &sel
	}
	return in, nil
}

func itemToResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:       item.ID,
		Name:     item.Name,
		Function: item.Function,
		Weight:   item.Weight,
		Volume:   item.Volume,
		Price:    item.Price,
		Amount:   item.Amount,
	}
}

func packToResponse(pack *domain.Pack) PackResponse {
	return PackResponse{
		ID:       pack.ID,
		Name:     pack.Name,
		Function: pack.Function,
	}
}

func (h *Handler) attributesToResponse(a domain.Attributes) AttributesResponse {
	resp := AttributesResponse{
		PackID:    a.PackID,
		Name:      a.Name,
		Function:  a.Function,
		Weight:    a.Weight,
		Volume:    a.Volume,
		Price:     a.Price,
		Unbounded: a.Buildable.Unbounded,
		Units:     h.inventory.Defaults().Units,
	}
	if !a.Buildable.Unbounded {
		count := a.Buildable.Count
		resp.BuildableAmount = &count
	}
	return resp
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, domain.ErrNotFound)
}

// isIntegrityViolation checks if an error is a rejected membership edge.
func isIntegrityViolation(err error) bool {
	return errors.Is(err, domain.ErrIntegrityViolation) ||
		errors.Is(err, store.ErrForeignKey) ||
		errors.Is(err, store.ErrDuplicateID)
}
