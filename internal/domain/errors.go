package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrNoOrder  = errors.New("no active order")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Msg
}
