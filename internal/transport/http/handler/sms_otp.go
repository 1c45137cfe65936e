package handler

import (
	"net/http"

	"github.com/fuel-otp/internal/application/otp"
	"github.com/fuel-otp/internal/pkg/validate"
)

type phoneRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type phoneVerifyRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	OTP         string `json:"otp" validate:"required,otpcode"`
}

// SMSOTPHandler serves the SMS OTP endpoints. Codes are held by the local store.
type SMSOTPHandler struct {
	svc otp.Service
	errorWriter
}

func NewSMSOTPHandler(svc otp.Service, dev bool) *SMSOTPHandler {
	return &SMSOTPHandler{svc: svc, errorWriter: errorWriter{dev: dev}}
}

func (h *SMSOTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	res, err := h.svc.SendSMSOTP(r.Context(), req.PhoneNumber)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Success:     true,
		Message:     "OTP sent via SMS",
		PhoneNumber: res.Identity,
		ExpiresAt:   &res.ExpiresAt,
	})
}

func (h *SMSOTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req phoneVerifyRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	v, err := h.svc.VerifySMSOTP(r.Context(), req.PhoneNumber, req.OTP)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeVerdict(w, v)
}
