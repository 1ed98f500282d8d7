package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pointsboard/apiserver/internal/services"
)

// WinnerHandler exposes recorded winner events.
type WinnerHandler struct {
	winnerService *services.WinnerService
}

// WinnerRouter registers winner routes on the given router.
func WinnerRouter(r chi.Router, winnerService *services.WinnerService) {
	handler := &WinnerHandler{winnerService: winnerService}
	r.Get("/", handler.ListWinners)
}

func (h *WinnerHandler) ListWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.winnerService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list winners")
		return
	}
	writeJSON(w, http.StatusOK, winners)
}
