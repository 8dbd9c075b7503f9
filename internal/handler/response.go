package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
)

// WriteJSON encodes data as the response body with the given status.
// The Content-Type header must be set before the status is written.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // body write failures are not recoverable here
}

// errorResponse is the error body shared by every endpoint: a stable
// machine-readable code plus a human-readable message.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes an errorResponse with the given status.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// WriteDomainError maps the domain's sentinel errors onto HTTP statuses:
// validation failures are 400, missing resources 404, and state conflicts
// (cancellability, funds, position, duplicate names) 409. Anything
// unrecognized is a 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
	case errors.Is(err, domain.ErrAccountNotFound):
		WriteError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		WriteError(w, http.StatusConflict, "account_already_exists", err.Error())
	case errors.Is(err, domain.ErrOrderNotCancellable):
		WriteError(w, http.StatusConflict, "order_not_cancellable", err.Error())
	case errors.Is(err, domain.ErrInsufficientCash):
		WriteError(w, http.StatusConflict, "insufficient_cash", err.Error())
	case errors.Is(err, domain.ErrInsufficientPosition):
		WriteError(w, http.StatusConflict, "insufficient_position", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// ParseJSON decodes the request body into v, rejecting unknown fields.
// The Content-Type and decode failures carry distinct messages so clients
// can tell a missing header from a broken body.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("Content-Type must be application/json, got %q", ct)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("request body is not valid JSON: %v", err)
	}

	return nil
}
