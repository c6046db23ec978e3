package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidOffset   = errors.New("invalid offset")
	ErrInvalidRange    = errors.New("invalid range")
	ErrUnknownCheckbox = errors.New("unknown checkbox")
	ErrDuplicateID     = errors.New("duplicate checkbox id")
)
