package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flowerdream/api/internal/platform/auth"
	"github.com/flowerdream/api/internal/platform/httpx"
	"github.com/flowerdream/api/internal/repositories"
)

const maxCollectionBodySize = 1 << 20

// CollectionHandlers is a thin pass-through over the collection store for one
// named collection: list/insert/update/delete plus bulk insert.
type CollectionHandlers struct {
	store      repositories.CollectionStore
	collection string
	authn      *auth.Authenticator
	publicRead bool
}

// CollectionOption customises proxy behaviour.
type CollectionOption func(*CollectionHandlers)

// WithPublicRead leaves GET open to anonymous callers; writes stay admin-only.
func WithPublicRead() CollectionOption {
	return func(h *CollectionHandlers) {
		h.publicRead = true
	}
}

// NewCollectionHandlers constructs proxy handlers for one collection.
func NewCollectionHandlers(store repositories.CollectionStore, collection string, authn *auth.Authenticator, opts ...CollectionOption) *CollectionHandlers {
	h := &CollectionHandlers{
		store:      store,
		collection: collection,
		authn:      authn,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the proxy endpoints.
func (h *CollectionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	admin := func(next http.Handler) http.Handler { return next }
	if h.authn != nil {
		admin = h.authn.RequireAuth(auth.RoleAdmin)
	}

	if h.publicRead {
		r.Get("/", h.list)
	} else {
		r.With(admin).Get("/", h.list)
	}
	r.With(admin).Post("/", h.insert)
	r.With(admin).Put("/", h.update)
	r.With(admin).Delete("/", h.delete)
	r.With(admin).Post("/bulk", h.bulkInsert)
}

func (h *CollectionHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.store.List(ctx, h.collection, strings.TrimSpace(r.URL.Query().Get("order")))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, rows)
}

func (h *CollectionHandlers) insert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxCollectionBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var row map[string]any
	if err := json.Unmarshal(body, &row); err != nil || len(row) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "a JSON object is required", http.StatusBadRequest))
		return
	}

	inserted, err := h.store.Insert(ctx, h.collection, row)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, inserted)
}

func (h *CollectionHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxCollectionBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		ID   string         `json:"id"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "id is required", http.StatusBadRequest))
		return
	}
	if len(req.Data) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "data is required", http.StatusBadRequest))
		return
	}

	updated, err := h.store.Update(ctx, h.collection, req.ID, req.Data)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, updated)
}

func (h *CollectionHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxCollectionBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.ID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "id is required", http.StatusBadRequest))
		return
	}

	if err := h.store.Delete(ctx, h.collection, req.ID); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"success": true})
}

func (h *CollectionHandlers) bulkInsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxCollectionBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	items, err := decodeBulkItems(body)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	inserted, err := h.store.BulkInsert(ctx, h.collection, items)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"inserted": len(inserted)})
}

// decodeBulkItems accepts either a bare array or an {items: [...]} wrapper.
func decodeBulkItems(body []byte) ([]map[string]any, error) {
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		var wrapper struct {
			Items []map[string]any `json:"items"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, errInvalidBulkPayload
		}
		items = wrapper.Items
	}
	if len(items) == 0 {
		return nil, errInvalidBulkPayload
	}
	return items, nil
}

func (h *CollectionHandlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if repositories.IsNotFound(err) {
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("store_error", err.Error(), http.StatusInternalServerError))
}
