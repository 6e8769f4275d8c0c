package handlers

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowerdream/api/internal/platform/auth"
	"github.com/flowerdream/api/internal/platform/httpx"
	"github.com/flowerdream/api/internal/services"
)

const maxImportSize = 8 << 20

// ImportHandlers serves CSV templates and accepts catalog import files.
type ImportHandlers struct {
	authn   *auth.Authenticator
	imports services.ImportService
}

// NewImportHandlers constructs import handlers.
func NewImportHandlers(authn *auth.Authenticator, imports services.ImportService) *ImportHandlers {
	return &ImportHandlers{authn: authn, imports: imports}
}

// Routes registers the /imports endpoints.
func (h *ImportHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleAdmin))
	}
	r.Get("/{kind}/template", h.template)
	r.Post("/{kind}", h.importFile)
}

func (h *ImportHandlers) template(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, fileName, err := h.imports.TemplateCSV(services.ImportKind(chi.URLParam(r, "kind")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(payload)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *ImportHandlers) importFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "multipart form with a file field is required", http.StatusBadRequest))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "file field is required", http.StatusBadRequest))
		return
	}
	defer file.Close()

	report, err := h.imports.Import(ctx, services.ImportKind(chi.URLParam(r, "kind")), header.Filename, file, identity.Email)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, report)
}
