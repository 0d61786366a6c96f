package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/Botforge/internal/api/middlewares"
	"github.com/markdave123-py/Botforge/internal/services"
)

const maxUploadBytes = 50 << 20 // 50 MB

type FileHandler struct {
	files *services.FileService
}

func NewFileHandler(files *services.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// UploadFile stores a multipart upload and returns the catalog row. The
// returned id is what a file-type training source carries as its value.
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.OrganizationID(r.Context())
	botID := chi.URLParam(r, "bot_id")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// Strip any path components a client may have left in.
	filename := filepath.Base(header.Filename)

	rec, err := h.files.Upload(r.Context(), orgID, botID, filename, contentType, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// SignedURL returns a time-limited download URL for a stored file.
func (h *FileHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.OrganizationID(r.Context())
	botID := chi.URLParam(r, "bot_id")
	fileID := chi.URLParam(r, "file_id")

	url, err := h.files.SignedURL(r.Context(), orgID, botID, fileID, 15*time.Minute)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
