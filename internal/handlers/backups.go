package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/platform/auth"
	"github.com/flowerdream/api/internal/platform/httpx"
	"github.com/flowerdream/api/internal/services"
)

// BackupHandlers exposes the server-side snapshot and restore operations.
// Plain backup CRUD is served by the generic collection proxy; these routes
// only add the operations that must compute against live catalog data.
type BackupHandlers struct {
	authn   *auth.Authenticator
	backups services.BackupService
}

// NewBackupHandlers constructs backup handlers.
func NewBackupHandlers(authn *auth.Authenticator, backups services.BackupService) *BackupHandlers {
	return &BackupHandlers{authn: authn, backups: backups}
}

// Routes registers the snapshot and restore endpoints. Both are admin-only.
func (h *BackupHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	admin := func(next http.Handler) http.Handler { return next }
	if h.authn != nil {
		admin = h.authn.RequireAuth(auth.RoleAdmin)
	}
	r.With(admin).Post("/snapshot", h.snapshot)
	r.With(admin).Post("/{backupID}/restore", h.restore)
}

type snapshotRequest struct {
	Type string `json:"type"`
}

func (h *BackupHandlers) snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, defaultMaxBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req snapshotRequest
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.Type) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "type is required", http.StatusBadRequest))
		return
	}

	backup, err := h.backups.Create(ctx, domain.BackupType(strings.TrimSpace(req.Type)), identity.Email)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, backup)
}

func (h *BackupHandlers) restore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.backups.Restore(ctx, chi.URLParam(r, "backupID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, report)
}
