package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/flowerdream/api/internal/platform/auth"
	"github.com/flowerdream/api/internal/platform/httpx"
	"github.com/flowerdream/api/internal/services"
)

const defaultMaxBodySize = 256 * 1024

var (
	errBodyTooLarge       = errors.New("request body too large")
	errEmptyBody          = errors.New("request body is required")
	errInvalidBulkPayload = errors.New("a non-empty array (or {items:[...]}) is required")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = defaultMaxBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func requireIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.Email) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

// writeServiceError maps service sentinel errors onto the canonical error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrCatalogInvalidInput),
		errors.Is(err, services.ErrBackupInvalidInput),
		errors.Is(err, services.ErrNotificationInvalidInput),
		errors.Is(err, services.ErrImportInvalidInput),
		errors.Is(err, services.ErrUploadInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrCatalogNotFound),
		errors.Is(err, services.ErrBackupNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrOrderForbidden),
		errors.Is(err, services.ErrNotificationForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", err.Error(), http.StatusForbidden))
	case errors.Is(err, services.ErrOrderInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderInvalidState),
		errors.Is(err, services.ErrOrderReviewNotAllowed):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrBackupEmpty):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrImportFailed):
		httpx.WriteError(ctx, w, httpx.NewError("import_failed", err.Error(), http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}
