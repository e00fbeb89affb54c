package service

import "errors"

// Result workflow errors. Operations wrap these with detail; callers match
// with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalState     = errors.New("result is published and can no longer change")
)
