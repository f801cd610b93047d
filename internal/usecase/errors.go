package usecase

import "taxdesk-backend/internal/domain"

type ErrNotFound string

func (e ErrNotFound) Error() string { return string(e) + " not found" }

type ErrConflict string

func (e ErrConflict) Error() string { return string(e) }

type ErrBadRequest string

func (e ErrBadRequest) Error() string { return string(e) }

type ErrUnauthorized string

func (e ErrUnauthorized) Error() string { return string(e) }

type ErrForbidden string

func (e ErrForbidden) Error() string { return string(e) }

type ErrInvalidState string

func (e ErrInvalidState) Error() string { return string(e) }

type ErrSignature string

func (e ErrSignature) Error() string { return string(e) }

type ErrMisconfigured string

func (e ErrMisconfigured) Error() string { return string(e) + " not configured" }

// GatewayError is a failed or refused call to the payment gateway.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return "payment gateway: " + e.Op
	}
	return "payment gateway: " + e.Op + ": " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error { return e.Err }

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

func requireAdmin(a domain.Actor) error {
	if !a.IsAdmin() {
		return ErrForbidden("admin role required")
	}
	return nil
}
