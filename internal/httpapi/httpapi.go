// Package httpapi serves the signing dashboard and its JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/application/service"
	"github.com/TemirB/bankid-sign/internal/bankid"
	"github.com/TemirB/bankid-sign/internal/domain"
	"github.com/TemirB/bankid-sign/internal/observability"
)

//go:generate mockgen -source=httpapi.go -destination=httpapi_mock_test.go -package=httpapi

const shutdownTimeout = 10 * time.Second

type SignStore interface {
	List(ctx context.Context, query string) ([]domain.Sign, error)
	GetWithStats(ctx context.Context, id int64) (*domain.Sign, service.LookupStats, error)
	Create(ctx context.Context, sign *domain.Sign) (service.WriteStats, error)
	Delete(ctx context.Context, id int64) error
}

type Signer interface {
	Start(ctx context.Context, pno, endUserIP string) (*domain.Order, error)
	QR(order *domain.Order) string
	Collect(ctx context.Context, order *domain.Order) (*bankid.CollectResponse, bool, error)
	Cancel(ctx context.Context, order *domain.Order) error
	LaunchURL(autoStartToken string) string
}

type Sessions interface {
	Load(r *http.Request) (*domain.Order, error)
	Save(w http.ResponseWriter, order *domain.Order) error
	Clear(w http.ResponseWriter)
}

type snapshotter interface {
	Snapshot() observability.Snapshot
}

type Server struct {
	signs    SignStore
	signer   Signer
	sessions Sessions
	logger   *zap.Logger
	metrics  observability.Metrics
	router   chi.Router
	pages    *pages
}

func New(signs SignStore, signer Signer, sessions Sessions, logger *zap.Logger, metrics observability.Metrics) *Server {
	s := &Server{
		signs:    signs,
		signer:   signer,
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
		router:   chi.NewRouter(),
		pages:    mustParsePages(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(s.logger),
		middleware.Recoverer,
		ServerTimingApp(s.metrics),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", s.dashboard)
	r.Handle("/static/*", staticHandler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/sign", s.startSign)
		r.Get("/sign", s.signQR)
		r.Get("/sign/qr.png", s.signQRImage)
		r.Delete("/sign", s.resetSign)
		r.Get("/collect", s.collect)

		r.Get("/signs", s.listSigns)
		r.Post("/signs", s.createSign)
		r.Get("/signs/{id}", s.getSign)
		r.Delete("/signs/{id}", s.deleteSign)
	})

	if snap, ok := s.metrics.(snapshotter); ok {
		r.Get("/debug/metrics", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, snap.Snapshot())
		})
	}
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is done, then drains open requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
