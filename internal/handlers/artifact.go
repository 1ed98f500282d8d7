package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pointsboard/apiserver/internal/storage"
)

// ArtifactHandler serves stored QR artifacts.
type ArtifactHandler struct {
	store *storage.Storage
}

// ArtifactRouter registers artifact routes on the given router.
func ArtifactRouter(r chi.Router, store *storage.Storage) {
	handler := &ArtifactHandler{store: store}
	r.Get("/{filename}", handler.GetArtifact)
}

// GetArtifact streams one stored artifact by file name.
func (h *ArtifactHandler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	reader, err := h.store.Get(r.Context(), filename)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "image/png")
	if _, err := io.Copy(w, reader); err != nil {
		// Headers are already written; nothing to report to the client.
		return
	}
}
