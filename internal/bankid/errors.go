package bankid

import (
	"errors"
	"fmt"
)

// Error codes returned by the RP API.
const (
	CodeAlreadyInProgress    = "alreadyInProgress"
	CodeInvalidParameters    = "invalidParameters"
	CodeUnauthorized         = "unauthorized"
	CodeNotFound             = "notFound"
	CodeMethodNotAllowed     = "methodNotAllowed"
	CodeRequestTimeout       = "requestTimeout"
	CodeUnsupportedMediaType = "unsupportedMediaType"
	CodeInternalError        = "internalError"
	CodeMaintenance          = "maintenance"
)

// Error is a non-2xx answer from the RP API.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"errorCode"`
	Details string `json:"details"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("bankid: %s (HTTP %d): %s", e.Code, e.Status, e.Details)
	}
	return fmt.Sprintf("bankid: %s (HTTP %d)", e.Code, e.Status)
}

// IsCode reports whether err is a BankID error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
