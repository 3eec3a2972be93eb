// Package bankid is a client for the BankID Relying Party API v6.
package bankid

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/pkcs12"

	"github.com/TemirB/bankid-sign/internal/config"
)

const (
	defaultRetryCount   = 2
	defaultRetryWait    = 200 * time.Millisecond
	defaultRetryMaxWait = 2 * time.Second
)

var (
	ErrMissingEndUserIP       = errors.New("bankid: endUserIp is required")
	ErrMissingUserVisibleData = errors.New("bankid: userVisibleData is required")
	ErrMissingOrderRef        = errors.New("bankid: orderRef is required")
)

type Client struct {
	baseURL string
	http    *resty.Client
	logger  *zap.Logger
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusRequestTimeout || code >= 500 && code <= 599
}

// New builds a client authenticated with the RP certificate from cfg.
func New(cfg config.BankID, logger *zap.Logger) (*Client, error) {
	tlsCfg, err := tlsConfig(cfg)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetTLSClientConfig(tlsCfg).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWait).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		AddRetryCondition(isRetryableResp)

	return newClient(cfg.URL, httpClient, logger), nil
}

func newClient(baseURL string, httpClient *resty.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

func tlsConfig(cfg config.BankID) (*tls.Config, error) {
	tc := &tls.Config{MinVersion: tls.VersionTLS12}

	switch {
	case cfg.PFXPath != "":
		raw, err := os.ReadFile(cfg.PFXPath)
		if err != nil {
			return nil, fmt.Errorf("read pfx: %w", err)
		}
		cert, err := certFromPFX(raw, cfg.Passphrase)
		if err != nil {
			return nil, err
		}
		tc.Certificates = []tls.Certificate{cert}
	case cfg.CertPath != "":
		cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tc.Certificates = []tls.Certificate{cert}
	}

	if cfg.CAPath != "" {
		ca, err := os.ReadFile(cfg.CAPath)
		if err != nil {
			return nil, fmt.Errorf("read ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CAPath)
		}
		tc.RootCAs = pool
	}
	return tc, nil
}

// certFromPFX converts a PKCS#12 bundle, chain included, into a TLS certificate.
func certFromPFX(raw []byte, passphrase string) (tls.Certificate, error) {
	blocks, err := pkcs12.ToPEM(raw, passphrase)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode pfx: %w", err)
	}
	var pemData []byte
	for _, b := range blocks {
		pemData = append(pemData, pem.EncodeToMemory(b)...)
	}
	cert, err := tls.X509KeyPair(pemData, pemData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("parse pfx: %w", err)
	}
	return cert, nil
}

func (c *Client) Auth(ctx context.Context, req AuthRequest) (*OrderResponse, error) {
	if strings.TrimSpace(req.EndUserIP) == "" {
		return nil, ErrMissingEndUserIP
	}
	req.UserVisibleData = encodeVisible(req.UserVisibleData)

	var out OrderResponse
	if err := c.post(ctx, "/auth", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Sign(ctx context.Context, req SignRequest) (*OrderResponse, error) {
	if strings.TrimSpace(req.EndUserIP) == "" {
		return nil, ErrMissingEndUserIP
	}
	if req.UserVisibleData == "" {
		return nil, ErrMissingUserVisibleData
	}
	req.UserVisibleData = encodeVisible(req.UserVisibleData)
	req.UserNonVisibleData = encodeVisible(req.UserNonVisibleData)

	var out OrderResponse
	if err := c.post(ctx, "/sign", req, &out); err != nil {
		return nil, err
	}
	c.logger.Info("bankid sign order started", zap.String("order_ref", out.OrderRef))
	return &out, nil
}

func (c *Client) Collect(ctx context.Context, orderRef string) (*CollectResponse, error) {
	if orderRef == "" {
		return nil, ErrMissingOrderRef
	}
	var out CollectResponse
	if err := c.post(ctx, "/collect", orderRefRequest{OrderRef: orderRef}, &out); err != nil {
		return nil, err
	}
	c.logger.Debug("bankid collect",
		zap.String("order_ref", out.OrderRef),
		zap.String("status", out.Status),
		zap.String("hint_code", out.HintCode),
	)
	return &out, nil
}

func (c *Client) Cancel(ctx context.Context, orderRef string) error {
	if orderRef == "" {
		return ErrMissingOrderRef
	}
	return c.post(ctx, "/cancel", orderRefRequest{OrderRef: orderRef}, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("bankid %s: %w", path, err)
	}

	raw := resp.Body()
	if resp.IsError() {
		apiErr := &Error{Status: resp.StatusCode()}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode())
			apiErr.Details = strings.TrimSpace(string(raw))
		}
		c.logger.Warn("bankid request failed",
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("error_code", apiErr.Code),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("bankid %s: decode response: %w", path, err)
	}
	return nil
}

func encodeVisible(s string) string {
	if s == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}
