package physics

import "errors"

var (
	ErrInvalidShape    = errors.New("invalid shape")
	ErrAlreadyAttached = errors.New("body already attached")
	ErrNotAttached     = errors.New("body not attached")
	ErrTooFewParts     = errors.New("compound needs at least two parts")
	ErrNestedCompound  = errors.New("compound bodies cannot be parts of another compound")
	ErrDuplicatePart   = errors.New("body listed twice")
	ErrInvalidProperty = errors.New("invalid property value")
)
