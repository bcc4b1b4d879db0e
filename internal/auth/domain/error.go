package domain

import "errors"

var (
	// ErrInvalidCredentials never distinguishes a wrong email from a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeactivated is surfaced separately from bad credentials.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrInvalidRegistration covers malformed registration input. It is a
	// validation failure, never an authentication one.
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrTokenNotFound      = errors.New("token not found")
	ErrInvalidResetToken  = errors.New("invalid reset token")
	ErrProvider           = errors.New("identity provider error")
	ErrMFAUnavailable     = errors.New("mfa unavailable")
)
