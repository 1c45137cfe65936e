package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fuel-otp/internal/domain"
)

const (
	errInvalidRequest = "Invalid request"
	errInternal       = "Internal server error"
)

// MessageEnvelope is the response body of every OTP endpoint.
type MessageEnvelope struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	Details     string     `json:"details,omitempty"`
	Email       string     `json:"email,omitempty"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	// OTP is only filled when email sending was simulated in development.
	OTP string `json:"otp,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, Message: msg})
}

// errorWriter renders service errors. Raw causes are attached as details in
// development only.
type errorWriter struct {
	dev bool
}

func (ew errorWriter) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, MessageEnvelope{Error: errInvalidRequest, Message: msg})
}

// sendError maps a failed send. Delivery failures whose text points at the
// input or configuration are client errors; every other delivery failure is a
// server error.
func (ew errorWriter) sendError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DeliveryError
	if errors.As(err, &de) {
		env := MessageEnvelope{Error: de.Msg, Message: "Failed to send OTP"}
		if ew.dev && de.Err != nil {
			env.Details = de.Err.Error()
		}
		writeJSON(w, sendFailureStatus(de.Msg), env)
		return
	}
	ew.httpError(w, r, err)
}

func sendFailureStatus(msg string) int {
	if strings.Contains(msg, "Invalid") || strings.Contains(msg, "format") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// httpError maps domain sentinel errors to HTTP status codes.
func (ew errorWriter) httpError(w http.ResponseWriter, r *http.Request, err error) {
	var ie *domain.InputError
	switch {
	case errors.As(err, &ie):
		ew.badRequest(w, ie.Msg)
	case errors.Is(err, domain.ErrBadRequest):
		ew.badRequest(w, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		env := MessageEnvelope{Error: errInternal, Message: errInternal}
		if ew.dev {
			env.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, env)
	}
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
