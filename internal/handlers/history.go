package handlers

import (
	"net/http"

	"github.com/Vjnishad/mescon/internal/api/middleware"
)

// GetHistory returns the authenticated user's messages grouped by
// counterpart, each thread in timestamp order.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	threads, err := h.history.History(r.Context(), identity)
	if err != nil {
		h.logger.Error().Err(err).Msg("history query failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, threads)
}
