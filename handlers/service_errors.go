package handlers

import (
	"net/http"

	"github.com/upb/account-auth/middleware"
	"github.com/upb/account-auth/services"
	"github.com/upb/account-auth/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	requestID := middleware.GetRequestIDFromContext(r.Context())

	switch status := middleware.StatusForError(err); {
	case status >= http.StatusInternalServerError:
		// Internal errors are logged in full; the client gets a generic body.
		logger.Error("internal server error",
			zap.String("request_id", requestID),
			zap.Error(err))
	default:
		logger.Debug("handled service error",
			zap.String("request_id", requestID),
			zap.String("type", string(services.GetErrorType(err))),
			zap.String("code", services.GetErrorCode(err)),
			zap.Int("status", status))
	}

	middleware.HandleError(w, err)
}

// HandleValidationError writes a 422 for a request body that failed validation
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	fields := utils.GetValidationFields(err)
	if writeErr := utils.WriteUnprocessableEntity(w, services.ErrInvalidInput.Message, fields); writeErr != nil {
		logger.Error("failed to write validation error response", zap.Error(writeErr))
	}
}

// requireVerified returns the gate result stored by TokenGate.Require
func requireVerified(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*middleware.Verified, bool) {
	verified := middleware.GetVerifiedFromContext(r.Context())
	if verified == nil {
		logger.Error("route reached without a token gate",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path))
		middleware.HandleError(w, services.ErrMissingCredential)
		return nil, false
	}
	return verified, true
}
