package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vjnishad/mescon/internal/api/middleware"
	"github.com/Vjnishad/mescon/internal/store"
)

// ProfileUpdateRequest represents the update-profile request body.
type ProfileUpdateRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// GetProfile returns the authenticated user's profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	user, err := h.db.GetUser(r.Context(), identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "user profile not found")
			return
		}
		h.logger.Error().Err(err).Msg("profile fetch failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's name and avatar.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.db.UpdateUser(r.Context(), identity, sanitizeName(req.Name), req.Avatar)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "user profile not found")
			return
		}
		h.logger.Error().Err(err).Msg("profile update failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "profile updated successfully",
		"profile": user,
	})
}
