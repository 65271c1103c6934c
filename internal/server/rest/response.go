package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/affinity/internal/common"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// StatusFromError maps service errors to HTTP status codes. A duplicate
// email is reported as 400, like any other rejected registration.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrNoToken),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// MessageFromError returns the client-facing text for err. Only validation
// errors carry their details; everything else gets a fixed message.
func MessageFromError(err error) string {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return err.Error()
	case errors.Is(err, common.ErrEmailTaken):
		return "Email is already taken"
	case errors.Is(err, common.ErrorAlreadyExists):
		return "User already exists"
	case errors.Is(err, common.ErrorUnauthorized):
		return "Invalid credentials"
	case errors.Is(err, common.ErrNoToken):
		return "No token provided"
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return "Invalid or expired token"
	case errors.Is(err, common.ErrorForbidden):
		return "Admin access required"
	case errors.Is(err, common.ErrorNotFound):
		return "User not found"
	default:
		return "Internal server error"
	}
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	RespondWithError(w, StatusFromError(err), MessageFromError(err))
}
