package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fieldcart/backoffice/internal/logger"
	"github.com/fieldcart/backoffice/internal/service"
)

// AuthHandler serves the session lifecycle endpoints.
type AuthHandler struct {
	auth     *service.Auth
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAuthHandler(auth *service.Auth, validate *validator.Validate, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		validate: validate,
		logger:   logger,
	}
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// Login handles password logins and, when requestOtp is set, one-time
// code requests for the same identifier.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email == "" && req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "email or phoneNumber is required")
		return
	}

	if req.RequestOTP {
		if err := h.auth.RequestLoginCode(r.Context(), req.Email, req.PhoneNumber); err != nil {
			h.logger.Error().Err(err).Msg("failed to request login code")
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "verification code sent"})
		return
	}

	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	result, err := h.auth.PasswordLogin(r.Context(), service.LoginInput{
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Device:      req.DeviceInfo,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         toUserPayload(result.User),
	})
}

// VerifyOTP exchanges a previously requested login code for a token pair.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email == "" && req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "email or phoneNumber is required")
		return
	}

	result, err := h.auth.VerifyLoginCode(r.Context(), req.Email, req.PhoneNumber, req.Code, req.DeviceInfo)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         toUserPayload(result.User),
	})
}

// Refresh rotates a refresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	pair, err := h.auth.TokenService().Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Logout revokes the presented refresh token. Missing or invalid tokens
// are tolerated so a client can always clear its local state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		h.logger.Error().Err(err).Msg("failed to revoke refresh token on logout")
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "logged out"})
}

// Profile returns the authenticated user's profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserPayload(user))
}

// Permissions returns the module names the authenticated user may access.
func (h *AuthHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	modules, err := h.auth.Permissions(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	if modules == nil {
		modules = []string{}
	}

	writeJSON(w, http.StatusOK, permissionsResponse{Modules: modules})
}

func (h *AuthHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("auth handler failure")
	}
	writeError(w, status, messageFor(err, status))
}
