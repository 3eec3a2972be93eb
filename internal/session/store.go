// Package session keeps the in-flight BankID order in an encrypted,
// authenticated browser cookie.
package session

import (
	"crypto/sha256"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/TemirB/bankid-sign/internal/config"
	"github.com/TemirB/bankid-sign/internal/domain"
)

type Store struct {
	name   string
	maxAge int
	secure bool
	codec  *securecookie.SecureCookie
}

// New returns a cookie store. Empty keys are replaced with random ones, so
// cookies issued by another process will not decode.
func New(cfg config.Cookie, secure bool) *Store {
	hashKey := deriveKey(cfg.HashKey, 64)
	blockKey := deriveKey(cfg.BlockKey, 32)

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(cfg.MaxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Store{
		name:   cfg.Name,
		maxAge: cfg.MaxAge,
		secure: secure,
		codec:  codec,
	}
}

// deriveKey stretches a configured secret to n bytes (n <= 64).
func deriveKey(secret string, n int) []byte {
	if secret == "" {
		return securecookie.GenerateRandomKey(n)
	}
	sum := sha256.Sum256([]byte(secret))
	if n <= len(sum) {
		return sum[:n]
	}
	key := make([]byte, 0, n)
	key = append(key, sum[:]...)
	tail := sha256.Sum256(sum[:])
	return append(key, tail[:n-len(sum)]...)
}

func (s *Store) Name() string { return s.name }

// Load returns domain.ErrNoOrder when the cookie is absent, expired or tampered with.
func (s *Store) Load(r *http.Request) (*domain.Order, error) {
	c, err := r.Cookie(s.name)
	if err != nil {
		return nil, domain.ErrNoOrder
	}
	var order domain.Order
	if err := s.codec.Decode(s.name, c.Value, &order); err != nil {
		return nil, domain.ErrNoOrder
	}
	if order.OrderRef == "" {
		return nil, domain.ErrNoOrder
	}
	return &order, nil
}

func (s *Store) Save(w http.ResponseWriter, order *domain.Order) error {
	if order == nil || order.OrderRef == "" {
		return errors.New("session: order without orderRef")
	}
	value, err := s.codec.Encode(s.name, order)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(value, s.maxAge))
	return nil
}

func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
