package http

import (
	"github.com/fuel-otp/internal/application/otp"
)

// Deps holds the application services the router exposes.
type Deps struct {
	OTP otp.Service
}
