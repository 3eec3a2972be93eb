// Package service holds the sign record and BankID signing use cases.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/config"
	"github.com/TemirB/bankid-sign/internal/domain"
	"github.com/TemirB/bankid-sign/internal/observability"
	"github.com/TemirB/bankid-sign/internal/pkg/retry"
)

//go:generate mockgen -source=service.go -destination=service_mock_test.go -package=service

type Cache interface {
	Set(*domain.Sign)
	Get(int64) (*domain.Sign, bool)
	Remove(int64)
	Replace([]domain.Sign)
}

type Storage interface {
	List(context.Context) ([]domain.Sign, error)
	Get(context.Context, int64) (*domain.Sign, error)
	Create(context.Context, *domain.Sign) error
	Delete(context.Context, int64) error
}

type Publisher interface {
	Publish(context.Context, domain.SignEvent) error
}

// SignService reads and writes sign records through the configured storage,
// keeps the LRU in step and announces changes on the event stream.
type SignService struct {
	cache       Cache
	storage     Storage
	publisher   Publisher
	retryPolicy config.Retry
	logger      *zap.Logger
	metrics     observability.Metrics
}

func NewSignService(cache Cache, storage Storage, publisher Publisher, retryPolicy config.Retry, logger *zap.Logger, metrics observability.Metrics) *SignService {
	return &SignService{
		cache:       cache,
		storage:     storage,
		publisher:   publisher,
		retryPolicy: retryPolicy,
		logger:      logger,
		metrics:     metrics,
	}
}

// List returns every sign matching query, newest first.
func (s *SignService) List(ctx context.Context, query string) ([]domain.Sign, error) {
	signs, err := s.storage.List(ctx)
	if err != nil {
		s.logger.Error("Can't list signs", zap.Error(err))
		return nil, err
	}
	s.cache.Replace(signs)
	return domain.FilterSigns(signs, query), nil
}

func (s *SignService) Get(ctx context.Context, id int64) (*domain.Sign, error) {
	sign, _, err := s.GetWithStats(ctx, id)
	return sign, err
}

func (s *SignService) GetWithStats(ctx context.Context, id int64) (*domain.Sign, LookupStats, error) {
	var st LookupStats

	tCacheStart := time.Now()
	if sign, ok := s.cache.Get(id); ok {
		st.Source = SourceCache
		st.CacheMs = convertToMs(tCacheStart)
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(string(st.Source), st.CacheMs, 0)

		s.logger.Debug("Sign fetched from cache",
			zap.Int64("sign_id", id),
			zap.Float64("cache_ms", st.CacheMs),
		)
		return sign, st, nil
	}

	s.metrics.IncCacheMiss()
	st.CacheMs = convertToMs(tCacheStart)

	tStoreStart := time.Now()
	sign, err := s.storage.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Can't fetch sign",
				zap.Int64("sign_id", id),
				zap.Error(err),
			)
		}
		return nil, st, err
	}

	st.Source = SourceStore
	st.StoreMs = convertToMs(tStoreStart)
	s.cache.Set(sign)

	s.metrics.ObserveLookup(string(st.Source), st.CacheMs, st.StoreMs)
	s.logger.Debug("Sign fetched from store",
		zap.Int64("sign_id", id),
		zap.Float64("cache_ms", st.CacheMs),
		zap.Float64("store_ms", st.StoreMs),
	)
	return sign, st, nil
}

// Create validates and records a finished order. The ID and creation time
// are filled in from the store.
func (s *SignService) Create(ctx context.Context, sign *domain.Sign) (WriteStats, error) {
	var st WriteStats
	if err := sign.Validate(); err != nil {
		return st, err
	}

	t0 := time.Now()
	err := retry.Do(ctx, s.retryPolicy, func() error {
		if err := s.storage.Create(ctx, sign); err != nil {
			if !transient(err) {
				return retry.Stop(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Error while recording sign",
			zap.String("order_ref", sign.OrderRef),
			zap.Error(err),
		)
		return st, err
	}
	st.StoreMs = convertToMs(t0)

	if sign.ID != 0 {
		s.cache.Set(sign)
	}
	s.metrics.ObserveUpsert(st.StoreMs)
	s.logger.Info("Sign recorded",
		zap.Int64("sign_id", sign.ID),
		zap.String("order_ref", sign.OrderRef),
		zap.String("status", sign.Status),
		zap.String("hint_code", sign.HintCode),
		zap.Float64("store_ms", st.StoreMs),
	)

	s.publish(ctx, domain.EventRecorded, *sign)
	return st, nil
}

// Delete removes a sign. Unknown ids yield domain.ErrNotFound.
func (s *SignService) Delete(ctx context.Context, id int64) error {
	sign, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Can't delete sign", zap.Int64("sign_id", id), zap.Error(err))
		}
		s.cache.Remove(id)
		return err
	}
	s.cache.Remove(id)

	s.logger.Info("Sign deleted",
		zap.Int64("sign_id", id),
		zap.String("order_ref", sign.OrderRef),
	)
	s.publish(ctx, domain.EventDeleted, *sign)
	return nil
}

func (s *SignService) publish(ctx context.Context, t domain.EventType, sign domain.Sign) {
	ev := domain.NewSignEvent(t, sign)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Can't publish sign event",
			zap.String("event_id", ev.ID),
			zap.String("type", string(t)),
			zap.Error(err),
		)
	}
}

// transient reports whether a failed write may be repeated. Stores flag
// their own answers through a Temporary method; errors without one are
// treated as transport failures.
func transient(err error) bool {
	var verr *domain.ValidationError
	if errors.As(err, &verr) || errors.Is(err, domain.ErrNotFound) {
		return false
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}
