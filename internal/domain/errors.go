package domain

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrCycle               = errors.New("referral cycle")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConflict            = errors.New("conflicting state")
)
