package user

import "errors"

var (
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("username is already taken")
	ErrLastAdmin      = errors.New("cannot remove the last active admin")
	ErrValidation     = errors.New("invalid user data")
)
