package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/TemirB/bankid-sign/internal/bankid"
	"github.com/TemirB/bankid-sign/internal/domain"
)

type dataResponse struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// statusFor maps domain and BankID errors onto HTTP statuses.
func statusFor(err error) int {
	var verr *domain.ValidationError
	var apiErr *bankid.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoOrder):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		switch apiErr.Code {
		case bankid.CodeAlreadyInProgress:
			return http.StatusConflict
		case bankid.CodeInvalidParameters:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}
