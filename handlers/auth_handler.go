package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/account-auth/services"
	"github.com/upb/account-auth/utils"
	"go.uber.org/zap"
)

// maxFormBytes bounds the login form body
const maxFormBytes = 1 << 16

// AuthHandler handles the /auth/jwt endpoints
type AuthHandler struct {
	auth   *services.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

// HandleLogin handles POST /auth/jwt/login with a urlencoded username/password form
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := parseLoginForm(r); err != nil {
		HandleServiceError(w, r, services.ErrInvalidInput.Wrap(err), h.logger)
		return
	}

	creds := services.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := utils.ValidateStruct(&creds); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	pair, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, pair); err != nil {
		h.logger.Error("failed to write login response", zap.Error(err))
	}
}

// HandleRefresh handles POST /auth/jwt/refresh behind the refresh gate
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	verified, ok := requireVerified(w, r, h.logger)
	if !ok {
		return
	}

	accessToken, err := h.auth.Refresh(r.Context(), verified.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, accessToken); err != nil {
		h.logger.Error("failed to write refresh response", zap.Error(err))
	}
}

// HandleVerify handles GET /auth/jwt/verify behind the access gate
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	verified, ok := requireVerified(w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.auth.Verify(r.Context(), verified.Claims); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := utils.WriteMessage(w, "Token is valid"); err != nil {
		h.logger.Error("failed to write verify response", zap.Error(err))
	}
}

// parseLoginForm accepts both urlencoded and multipart bodies
func parseLoginForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}
