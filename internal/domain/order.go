package domain

import "time"

// Order is the in-flight BankID sign order kept in the browser cookie
// between the start call and the final collect.
type Order struct {
	OrderRef       string `json:"orderRef"`
	AutoStartToken string `json:"autoStartToken"`
	QRStartToken   string `json:"qrStartToken"`
	QRStartSecret  string `json:"qrStartSecret"`
	StartTime      int64  `json:"startTime"` // unix milliseconds
}

// Elapsed returns whole seconds since the order started.
func (o *Order) Elapsed(now time.Time) int {
	ms := now.UnixMilli() - o.StartTime
	if ms < 0 {
		return 0
	}
	return int(ms / 1000)
}
