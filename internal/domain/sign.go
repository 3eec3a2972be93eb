package domain

import (
	"strings"
	"time"
)

const (
	StatusPending  = "pending"
	StatusFailed   = "failed"
	StatusComplete = "complete"

	// DefaultHintCode is recorded for orders that finished without a hint,
	// which BankID only omits for completed orders.
	DefaultHintCode = "success"
)

// Sign is a finished BankID order as listed on the dashboard.
type Sign struct {
	ID        int64     `json:"id"`
	OrderRef  string    `json:"orderRef"`
	Status    string    `json:"status"`
	HintCode  string    `json:"hintCode"`
	CreatedAt time.Time `json:"createdAt"`
}

// Matches reports whether query occurs in the order reference, status or hint code.
func (s Sign) Matches(query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(s.OrderRef, query) ||
		strings.Contains(s.Status, query) ||
		strings.Contains(s.HintCode, query)
}

func (s *Sign) Validate() error {
	if strings.TrimSpace(s.OrderRef) == "" {
		return &ValidationError{Field: "orderRef", Msg: "is required"}
	}
	if !Terminal(s.Status) {
		return &ValidationError{Field: "status", Msg: "must be failed or complete"}
	}
	if s.HintCode == "" {
		s.HintCode = DefaultHintCode
	}
	return nil
}

func Terminal(status string) bool {
	return status == StatusFailed || status == StatusComplete
}

// NewSign builds the record stored for a collected order.
func NewSign(orderRef, status, hintCode string) *Sign {
	if hintCode == "" {
		hintCode = DefaultHintCode
	}
	return &Sign{
		OrderRef: orderRef,
		Status:   status,
		HintCode: hintCode,
	}
}

func FilterSigns(signs []Sign, query string) []Sign {
	if query == "" {
		return signs
	}
	out := make([]Sign, 0, len(signs))
	for _, s := range signs {
		if s.Matches(query) {
			out = append(out, s)
		}
	}
	return out
}
