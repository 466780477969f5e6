package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/Vjnishad/mescon/internal/auth"
	"github.com/Vjnishad/mescon/internal/history"
	"github.com/Vjnishad/mescon/internal/otp"
	"github.com/Vjnishad/mescon/internal/store"
)

// mobileRegex accepts E.164-ish phone numbers: optional +, 8 to 15 digits.
var mobileRegex = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// Presence reports whether an identity currently holds a live connection.
// Implemented by the relay registry.
type Presence interface {
	IsOnline(identity string) bool
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	db       store.DataStore
	redis    *store.RedisStore // nil when Redis is not configured
	tokens   *auth.Tokens
	otp      *otp.Issuer
	history  *history.Service
	presence Presence
	logger   zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(db store.DataStore, redis *store.RedisStore, tokens *auth.Tokens, issuer *otp.Issuer, hist *history.Service, presence Presence, logger zerolog.Logger) *Handler {
	return &Handler{
		db:       db,
		redis:    redis,
		tokens:   tokens,
		otp:      issuer,
		history:  hist,
		presence: presence,
		logger:   logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// sanitizeName trims and limits a display name to 100 characters, removing
// control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// Truncate by runes so a multi-byte character is never split.
	if runes := []rune(name); len(runes) > 100 {
		name = string(runes[:100])
	}

	return name
}

// isValidMobile validates a phone number.
func isValidMobile(mobile string) bool {
	return mobileRegex.MatchString(mobile)
}
