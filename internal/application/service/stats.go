package service

import "time"

type LookupSource string

const (
	SourceCache LookupSource = "cache"
	SourceStore LookupSource = "store"
)

// LookupStats describes how a single sign was resolved.
type LookupStats struct {
	Source  LookupSource
	CacheMs float64
	StoreMs float64
}

type WriteStats struct {
	StoreMs float64
}

func convertToMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
