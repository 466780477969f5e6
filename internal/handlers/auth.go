package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vjnishad/mescon/internal/metrics"
	"github.com/Vjnishad/mescon/internal/otp"
)

// SendOTPRequest represents the send-otp request body.
type SendOTPRequest struct {
	Mobile string `json:"mobile"`
}

// VerifyOTPRequest represents the verify-otp request body.
type VerifyOTPRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

// VerifyOTPResponse represents the verify-otp response.
type VerifyOTPResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SendOTP issues a login code for a phone number. The code is delivered out of
// band; in development it is written to the log, standing in for an SMS
// gateway.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !isValidMobile(req.Mobile) {
		h.Error(w, http.StatusBadRequest, "invalid mobile number")
		return
	}

	code, err := h.otp.Issue(r.Context(), req.Mobile)
	if err != nil {
		h.logger.Error().Err(err).Msg("otp issue failed")
		h.Error(w, http.StatusInternalServerError, "failed to issue code")
		return
	}

	metrics.OTPIssued.Inc()
	h.logger.Info().Str("mobile", req.Mobile).Str("otp", code).Msg("login code issued")

	h.JSON(w, http.StatusOK, map[string]string{"message": "OTP sent successfully"})
}

// VerifyOTP checks a submitted login code and, on success, registers the user
// if needed and returns a signed bearer token.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !isValidMobile(req.Mobile) || req.OTP == "" {
		h.Error(w, http.StatusBadRequest, "mobile and otp are required")
		return
	}

	if err := h.otp.Verify(r.Context(), req.Mobile, req.OTP); err != nil {
		switch {
		case errors.Is(err, otp.ErrNoPending):
			metrics.OTPVerified.WithLabelValues("expired").Inc()
			h.Error(w, http.StatusBadRequest, "OTP not requested or has expired")
		case errors.Is(err, otp.ErrMismatch):
			metrics.OTPVerified.WithLabelValues("mismatch").Inc()
			h.Error(w, http.StatusBadRequest, "invalid OTP")
		default:
			h.logger.Error().Err(err).Msg("otp verify failed")
			h.Error(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}

	if _, err := h.db.EnsureUser(r.Context(), req.Mobile); err != nil {
		h.logger.Error().Err(err).Msg("user registration failed")
		h.Error(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	token, err := h.tokens.Sign(req.Mobile)
	if err != nil {
		h.logger.Error().Err(err).Msg("token sign failed")
		h.Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	metrics.OTPVerified.WithLabelValues("ok").Inc()
	h.JSON(w, http.StatusOK, VerifyOTPResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
