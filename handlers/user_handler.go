package handlers

import (
	"net/http"

	"github.com/upb/account-auth/services"
	"github.com/upb/account-auth/utils"
	"go.uber.org/zap"
)

// UserHandler handles the /user endpoints
type UserHandler struct {
	accounts *services.AccountService
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts *services.AccountService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// HandleDeleteMe handles DELETE /user/me
func (h *UserHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	verified, ok := requireVerified(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.accounts.DeleteOwnAccount(r.Context(), verified.Claims); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// HandleProtected handles GET /user/protected-route-only-jwt
func (h *UserHandler) HandleProtected(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireVerified(w, r, h.logger); !ok {
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, "Hello. You are authenticated with a JWT."); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
