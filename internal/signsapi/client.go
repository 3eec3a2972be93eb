// Package signsapi stores sign records in the external signs REST API.
package signsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/domain"
)

// envelope is the {data, error} wrapper the API answers mutations with.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error json.RawMessage `json:"error"`
}

// errorText flattens the error member, which is either a string or an
// object carrying a message.
func (e *envelope) errorText() string {
	raw := string(e.Error)
	if raw == "" || raw == "null" || raw == "false" || raw == `""` {
		return ""
	}
	var s string
	if json.Unmarshal(e.Error, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(e.Error, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return raw
}

type createRequest struct {
	OrderRef string `json:"orderRef"`
	Status   string `json:"status"`
	HintCode string `json:"hintCode"`
}

type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// ResponseError is a failure reported by the signs API itself.
type ResponseError struct {
	Status int
	Msg    string
}

func (e *ResponseError) Error() string { return e.Msg }

// Temporary is true only for answers that mean the request was not
// processed. Anything else may already have stored the row.
func (e *ResponseError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status == http.StatusServiceUnavailable
}

func isRetryableResp(r *resty.Response, err error) bool {
	// create and delete are not idempotent on the API side
	if r != nil && r.Request != nil && r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func New(baseURL string, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(isRetryableResp)
	return newClient(httpClient, logger)
}

func newClient(httpClient *resty.Client, logger *zap.Logger) *Client {
	return &Client{http: httpClient, logger: logger}
}

func (c *Client) List(ctx context.Context) ([]domain.Sign, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/signs")
	if err != nil {
		return nil, fmt.Errorf("list signs: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list signs: HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	var signs []domain.Sign
	if err := json.Unmarshal(resp.Body(), &signs); err != nil {
		return nil, fmt.Errorf("list signs: decode: %w", err)
	}
	return signs, nil
}

// Get has no dedicated endpoint upstream, so it scans the list.
func (c *Client) Get(ctx context.Context, id int64) (*domain.Sign, error) {
	signs, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range signs {
		if signs[i].ID == id {
			return &signs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (c *Client) Create(ctx context.Context, s *domain.Sign) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(createRequest{OrderRef: s.OrderRef, Status: s.Status, HintCode: s.HintCode}).
		Post("/signs/create")
	if err != nil {
		return fmt.Errorf("create sign: %w", err)
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return fmt.Errorf("create sign: %w", err)
	}

	// The API may echo the row (object or single-element array); take id and
	// createdAt from it when present.
	var created domain.Sign
	if len(env.Data) > 0 && env.Data[0] == '[' {
		var rows []domain.Sign
		if json.Unmarshal(env.Data, &rows) == nil && len(rows) > 0 {
			created = rows[0]
		}
	} else if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &created)
	}
	if created.ID != 0 {
		s.ID = created.ID
	}
	if !created.CreatedAt.IsZero() {
		s.CreatedAt = created.CreatedAt
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	c.logger.Info("sign stored in signs api",
		zap.Int64("id", s.ID),
		zap.String("order_ref", s.OrderRef),
	)
	return nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/signs/delete/" + strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Errorf("delete sign: %w", err)
	}
	if _, err := decodeEnvelope(resp); err != nil {
		return fmt.Errorf("delete sign %d: %w", id, err)
	}
	return nil
}

func decodeEnvelope(resp *resty.Response) (*envelope, error) {
	if resp.StatusCode() == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	code := resp.StatusCode()
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.IsError() {
			return nil, &ResponseError{Status: code, Msg: fmt.Sprintf("HTTP %d: %s", code, resp.String())}
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	if msg := env.errorText(); msg != "" {
		return nil, &ResponseError{Status: code, Msg: "signs api: " + msg}
	}
	if resp.IsError() {
		return nil, &ResponseError{Status: code, Msg: fmt.Sprintf("HTTP %d", code)}
	}
	return &env, nil
}
