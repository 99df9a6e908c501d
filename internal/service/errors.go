package service

import "errors"

var (
	ErrForbidden         = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyAllocated  = errors.New("equipment already allocated")
	ErrNotAllocated      = errors.New("equipment not allocated to bid")
	ErrConfiguration     = errors.New("invalid configuration")
)
