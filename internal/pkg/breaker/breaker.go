// Package breaker is a counting circuit breaker guarding the signs store.
package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/TemirB/bankid-sign/internal/config"
)

var ErrOpenState = errors.New("circuit breaker is open")

type State uint8

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker opens after cfg.Threshold consecutive failures, rejects calls for
// cfg.OpenTimeout, then lets up to cfg.MaxHalfOpen trial calls through.
type Breaker struct {
	mu          sync.Mutex
	cfg         config.Breaker
	state       State
	failCount   uint32
	lastChange  time.Time
	halfOpenReq uint32

	now func() time.Time
}

func New(cfg config.Breaker) *Breaker {
	if cfg.Threshold == 0 {
		cfg.Threshold = 1
	}
	if cfg.MaxHalfOpen == 0 {
		cfg.MaxHalfOpen = 1
	}
	return &Breaker{
		cfg:   cfg,
		state: Closed,
		now:   time.Now,
	}
}

func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.lastChange) < b.cfg.OpenTimeout {
			return ErrOpenState
		}
		b.transition(HalfOpen)
		b.halfOpenReq++
		return nil
	case HalfOpen:
		if b.halfOpenReq >= b.cfg.MaxHalfOpen {
			return ErrOpenState
		}
		b.halfOpenReq++
		return nil
	default:
		return nil
	}
}

func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.transition(Closed)
	case Closed:
		b.failCount = 0
	}
}

func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failCount++
		if b.failCount >= b.cfg.Threshold {
			b.transition(Open)
		}
	case HalfOpen:
		b.transition(Open)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(next State) {
	b.state = next
	b.lastChange = b.now()
	b.halfOpenReq = 0
	if next == Closed {
		b.failCount = 0
	}
}
