package handler

import (
	"net/http"

	"github.com/fuel-otp/internal/application/otp"
	"github.com/fuel-otp/internal/pkg/validate"
)

// WhatsAppHandler forwards WhatsApp OTP requests to the external gateway after
// phone normalization. The gateway's reply is passed through.
type WhatsAppHandler struct {
	svc otp.Service
	errorWriter
}

func NewWhatsAppHandler(svc otp.Service, dev bool) *WhatsAppHandler {
	return &WhatsAppHandler{svc: svc, errorWriter: errorWriter{dev: dev}}
}

func (h *WhatsAppHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	res, err := h.svc.SendWhatsAppOTP(r.Context(), req.PhoneNumber)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = sendFailureStatus(res.Error + " " + res.Message)
	}
	writeJSON(w, status, res)
}

func (h *WhatsAppHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req phoneVerifyRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	res, err := h.svc.VerifyWhatsAppOTP(r.Context(), req.PhoneNumber, req.OTP)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}
