package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Vjnishad/mescon/internal/api/middleware"
	"github.com/Vjnishad/mescon/internal/models"
	"github.com/Vjnishad/mescon/internal/store"
)

// ContactRequest represents the add/update contact request body.
type ContactRequest struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

// ListContacts returns the authenticated user's contact list.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	contacts, err := h.db.ListContacts(r.Context(), identity)
	if err != nil {
		h.logger.Error().Err(err).Msg("contact list failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if contacts == nil {
		contacts = []models.ContactView{}
	}
	for i := range contacts {
		contacts[i].Online = h.presence.IsOnline(contacts[i].ID)
	}

	h.JSON(w, http.StatusOK, contacts)
}

// AddContact adds a registered user to the caller's contact list.
func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !isValidMobile(req.Number) {
		h.Error(w, http.StatusBadRequest, "invalid mobile number")
		return
	}

	_, err := h.db.AddContact(r.Context(), identity, req.Number, sanitizeName(req.Name))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			h.Error(w, http.StatusNotFound, "user with this number is not registered")
		case errors.Is(err, store.ErrDuplicate):
			h.Error(w, http.StatusBadRequest, "contact already exists")
		default:
			h.logger.Error().Err(err).Msg("contact add failed")
			h.Error(w, http.StatusInternalServerError, "database error")
		}
		return
	}

	h.JSON(w, http.StatusCreated, map[string]string{"message": "contact added successfully"})
}

// UpdateContact renames a contact list entry.
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	contactID := chi.URLParam(r, "id")

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.db.UpdateContactName(r.Context(), identity, contactID, sanitizeName(req.Name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "contact not found")
			return
		}
		h.logger.Error().Err(err).Msg("contact update failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"message": "contact updated successfully"})
}

// DeleteContact removes a contact list entry.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	contactID := chi.URLParam(r, "id")

	if err := h.db.DeleteContact(r.Context(), identity, contactID); err != nil {
		h.logger.Error().Err(err).Msg("contact delete failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"message": "contact deleted successfully"})
}
