package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowerdream/api/internal/platform/auth"
	"github.com/flowerdream/api/internal/platform/httpx"
	"github.com/flowerdream/api/internal/services"
)

// Multipart uploads may carry catalogue photography, so the limit is
// considerably higher than for JSON bodies.
const maxUploadSize = 16 << 20

// UploadHandlers accepts multipart file uploads and returns public URLs.
type UploadHandlers struct {
	authn   *auth.Authenticator
	uploads services.UploadService
}

// NewUploadHandlers constructs upload handlers.
func NewUploadHandlers(authn *auth.Authenticator, uploads services.UploadService) *UploadHandlers {
	return &UploadHandlers{authn: authn, uploads: uploads}
}

// Routes registers the /uploads endpoints.
func (h *UploadHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleAdmin))
	}
	r.Post("/", h.uploadImage)
}

func (h *UploadHandlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "multipart form with a file field is required", http.StatusBadRequest))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "file field is required", http.StatusBadRequest))
		return
	}
	defer file.Close()

	uploaded, err := h.uploads.UploadImage(ctx, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, uploaded)
}
