package handler

import (
	"errors"
	"net/http"

	"github.com/fuel-otp/internal/application/otp"
	"github.com/fuel-otp/internal/domain"
	"github.com/fuel-otp/internal/pkg/validate"
)

type emailSendRequest struct {
	Email string `json:"email" validate:"required,emailaddr"`
	Lang  string `json:"lang"`
}

type emailVerifyRequest struct {
	Email string `json:"email" validate:"required,emailaddr"`
	OTP   string `json:"otp" validate:"required,otpcode"`
}

// EmailOTPHandler serves the email OTP endpoints.
type EmailOTPHandler struct {
	svc otp.Service
	errorWriter
}

func NewEmailOTPHandler(svc otp.Service, dev bool) *EmailOTPHandler {
	return &EmailOTPHandler{svc: svc, errorWriter: errorWriter{dev: dev}}
}

func (h *EmailOTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req emailSendRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	req.Email = otp.NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	res, err := h.svc.SendEmailOTP(r.Context(), req.Email, req.Lang)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Success:   true,
		Message:   "OTP sent to email",
		Email:     res.Identity,
		ExpiresAt: &res.ExpiresAt,
		OTP:       res.Code,
	})
}

func (h *EmailOTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req emailVerifyRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	req.Email = otp.NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	v, err := h.svc.VerifyEmailOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeVerdict(w, v)
}

// Test sends a sample OTP email to the address in the email query parameter.
func (h *EmailOTPHandler) Test(w http.ResponseWriter, r *http.Request) {
	addr := otp.NormalizeEmail(r.URL.Query().Get("email"))
	if addr == "" {
		h.badRequest(w, "email query parameter is required")
		return
	}
	if !validate.Email(addr) {
		h.badRequest(w, "Invalid email format")
		return
	}
	res, err := h.svc.TestEmail(r.Context(), addr)
	if err != nil {
		var de *domain.DeliveryError
		if !errors.As(err, &de) {
			h.httpError(w, r, err)
			return
		}
		// A failed test send is a result, not a request error.
		env := MessageEnvelope{Error: de.Msg, Message: "Test email failed", Email: addr}
		if h.dev && de.Err != nil {
			env.Details = de.Err.Error()
		}
		writeJSON(w, http.StatusOK, env)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Success: true,
		Message: "Test email sent via " + res.Provider,
		Email:   res.Identity,
		OTP:     res.Code,
	})
}

func writeVerdict(w http.ResponseWriter, v otp.Verdict) {
	if !v.IsValid {
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Error: v.Message, Message: v.Message})
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: v.Message})
}
