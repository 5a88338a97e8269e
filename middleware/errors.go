package middleware

import (
	"net/http"

	"github.com/upb/account-auth/services"
	"github.com/upb/account-auth/utils"
)

// StatusForError maps a domain error to its HTTP status
func StatusForError(err error) int {
	switch services.GetErrorType(err) {
	case services.ErrorTypeForbidden:
		return http.StatusForbidden
	case services.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorTypeValidation:
		return http.StatusBadRequest
	case services.ErrorTypeUnprocessable:
		return http.StatusUnprocessableEntity
	case services.ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes the response for err. Internal and unknown errors get a generic body.
func HandleError(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	details := make(map[string]interface{})
	for k, v := range services.GetErrorDetails(err) {
		details[k] = v
	}
	if code := services.GetErrorCode(err); code != "" {
		details["code"] = code
	}
	if len(details) == 0 {
		details = nil
	}

	_ = utils.WriteError(w, status, services.GetErrorMessage(err), details)
}
