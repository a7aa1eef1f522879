package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("username or password is incorrect")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrAccountLocked      = errors.New("account temporarily locked due to repeated login failures")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
