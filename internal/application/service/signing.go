package service

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/bankid"
	"github.com/TemirB/bankid-sign/internal/domain"
	"github.com/TemirB/bankid-sign/internal/observability"
	"github.com/TemirB/bankid-sign/internal/qr"
)

//go:generate mockgen -source=signing.go -destination=signing_mock_test.go -package=service

const launchBase = "https://app.bankid.com/"

type BankID interface {
	Sign(context.Context, bankid.SignRequest) (*bankid.OrderResponse, error)
	Collect(ctx context.Context, orderRef string) (*bankid.CollectResponse, error)
	Cancel(ctx context.Context, orderRef string) error
}

type Recorder interface {
	Create(context.Context, *domain.Sign) (WriteStats, error)
}

type SigningOptions struct {
	UserVisibleData string
	RedirectURL     string
}

// SigningService drives a BankID sign order from start to its final collect.
type SigningService struct {
	bankid  BankID
	signs   Recorder
	opts    SigningOptions
	logger  *zap.Logger
	metrics observability.Metrics

	now func() time.Time
}

func NewSigningService(client BankID, signs Recorder, opts SigningOptions, logger *zap.Logger, metrics observability.Metrics) *SigningService {
	return &SigningService{
		bankid:  client,
		signs:   signs,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Start opens a sign order for endUserIP. pno, when set, binds the order to
// that personal number.
func (s *SigningService) Start(ctx context.Context, pno, endUserIP string) (*domain.Order, error) {
	req := bankid.SignRequest{
		EndUserIP:       endUserIP,
		UserVisibleData: s.opts.UserVisibleData,
	}
	if pno != "" {
		req.Requirement = &bankid.Requirement{PersonalNumber: pno}
	}

	t0 := time.Now()
	resp, err := s.bankid.Sign(ctx, req)
	s.metrics.ObserveBankID("sign", convertToMs(t0), err == nil)
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		OrderRef:       resp.OrderRef,
		AutoStartToken: resp.AutoStartToken,
		QRStartToken:   resp.QRStartToken,
		QRStartSecret:  resp.QRStartSecret,
		StartTime:      s.now().UnixMilli(),
	}, nil
}

// QR returns the animated QR payload for the current second of the order.
func (s *SigningService) QR(order *domain.Order) string {
	return qr.ForOrder(order, s.now())
}

// Collect polls the order once. done is true when the order reached a final
// status; the sign is then recorded. Recording errors are only logged.
func (s *SigningService) Collect(ctx context.Context, order *domain.Order) (*bankid.CollectResponse, bool, error) {
	t0 := time.Now()
	resp, err := s.bankid.Collect(ctx, order.OrderRef)
	s.metrics.ObserveBankID("collect", convertToMs(t0), err == nil)
	if err != nil {
		return nil, false, err
	}
	s.metrics.ObserveCollect(resp.Status, resp.HintCode)

	if !domain.Terminal(resp.Status) {
		return resp, false, nil
	}

	sign := domain.NewSign(order.OrderRef, resp.Status, resp.HintCode)
	if _, err := s.signs.Create(ctx, sign); err != nil {
		s.logger.Error("Can't record finished order",
			zap.String("order_ref", order.OrderRef),
			zap.String("status", resp.Status),
			zap.Error(err),
		)
	}
	return resp, true, nil
}

func (s *SigningService) Cancel(ctx context.Context, order *domain.Order) error {
	t0 := time.Now()
	err := s.bankid.Cancel(ctx, order.OrderRef)
	s.metrics.ObserveBankID("cancel", convertToMs(t0), err == nil)
	return err
}

// LaunchURL opens the BankID app on this device and sends the user back to
// the configured redirect afterwards.
func (s *SigningService) LaunchURL(autoStartToken string) string {
	q := url.Values{}
	q.Set("autostarttoken", autoStartToken)
	if s.opts.RedirectURL != "" {
		q.Set("redirect", s.opts.RedirectURL)
	}
	return launchBase + "?" + q.Encode()
}
