package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/AnshRaj112/winter-backend/internal/apperror"
)

// APIResponse is the envelope for every JSON reply.
type APIResponse struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, APIResponse{
		Status:     "success",
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	})
}

// writeError maps service errors to the JSON error body. Infrastructure
// errors were already collapsed to a generic 500 at the service boundary.
func writeError(w http.ResponseWriter, err error) {
	appErr := apperror.From(err)
	writeJSON(w, appErr.StatusCode, APIResponse{
		Status:     "error",
		StatusCode: appErr.StatusCode,
		Message:    appErr.Message,
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, APIResponse{
		Status:     "error",
		StatusCode: http.StatusBadRequest,
		Message:    err.Error(),
	})
}
