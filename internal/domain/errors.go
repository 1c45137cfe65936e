package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotConfigured = errors.New("not configured")
	ErrDelivery      = errors.New("delivery failed")
)

// DeliveryError is returned by delivery adapters. Msg is safe to show to the
// caller; Err keeps the provider error for logs and development responses.
type DeliveryError struct {
	Channel string
	Msg     string
	Err     error
}

func (e *DeliveryError) Error() string { return e.Msg }

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is makes every DeliveryError match ErrDelivery.
func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// InputError reports a request value the service cannot act on, such as a
// malformed phone number. Msg is safe to show to the caller.
type InputError struct {
	Field string
	Msg   string
}

func (e *InputError) Error() string { return e.Msg }

// Is makes every InputError match ErrBadRequest.
func (e *InputError) Is(target error) bool { return target == ErrBadRequest }
