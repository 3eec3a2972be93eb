package observability

import (
	"fmt"
	"net/http"
)

// AppendServerTiming adds one Server-Timing metric. Non-positive durations
// are omitted, and nothing is written when both parts are empty.
func AppendServerTiming(w http.ResponseWriter, name string, durMs float64, desc string) {
	var v string
	switch {
	case durMs > 0 && desc != "":
		v = fmt.Sprintf("%s;dur=%.2f;desc=%q", name, durMs, desc)
	case durMs > 0:
		v = fmt.Sprintf("%s;dur=%.2f", name, durMs)
	case desc != "":
		v = fmt.Sprintf("%s;desc=%q", name, desc)
	default:
		return
	}
	w.Header().Add("Server-Timing", v)
}

func SetIfPos(w http.ResponseWriter, key string, ms float64) {
	if ms > 0 {
		w.Header().Set(key, fmt.Sprintf("%.2f", ms))
	}
}

// SetSource tags a signs response with where the record came from.
func SetSource(w http.ResponseWriter, source string) {
	if source != "" {
		w.Header().Set("X-Source", source)
	}
}
