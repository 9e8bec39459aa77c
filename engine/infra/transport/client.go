package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/linode/cloudmanager/engine/thunk"
	"github.com/linode/cloudmanager/pkg/logger"
)

const RequestIDHeader = "X-Request-Id"

// Recorder observes completed requests. Status is 0 when no response arrived.
type Recorder interface {
	RecordRequest(ctx context.Context, method string, status int, elapsed time.Duration)
}

// Config configures the API client.
type Config struct {
	BaseURL      string
	Token        string
	UserAgent    string
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	RateLimit    int64
	RatePeriod   time.Duration
}

// DefaultConfig targets the public v4 API.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://api.linode.com/v4",
		UserAgent:    "cloudmanager",
		Timeout:      30 * time.Second,
		RetryCount:   3,
		RetryWait:    100 * time.Millisecond,
		RetryMaxWait: 2 * time.Second,
	}
}

type Option func(*Client)

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithHTTPClient replaces the underlying *http.Client (tests, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client implements thunk.HTTPClient on top of resty.
type Client struct {
	client     *resty.Client
	governor   *Governor
	recorder   Recorder
	httpClient *http.Client
}

var _ thunk.HTTPClient = (*Client)(nil)

// New builds a client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute, got: %s", cfg.BaseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL scheme must be http or https, got: %s", base.Scheme)
	}
	c := &Client{governor: NewGovernor(cfg.RateLimit, cfg.RatePeriod)}
	for _, opt := range opts {
		opt(c)
	}
	c.client = buildHTTPClient(cfg, c.httpClient)
	c.client.OnBeforeRequest(c.beforeRequest)
	return c, nil
}

func buildHTTPClient(cfg Config, hc *http.Client) *resty.Client {
	var client *resty.Client
	if hc != nil {
		client = resty.NewWithClient(hc)
	} else {
		client = resty.New()
	}
	client.
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Token != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.Token)
	}
	client.AddRetryCondition(retryCondition)
	return client
}

// retryCondition retries network errors, 5xx, 429 and 408.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// beforeRequest runs once per attempt, retries included.
func (c *Client) beforeRequest(_ *resty.Client, r *resty.Request) error {
	if r.Header.Get(RequestIDHeader) == "" {
		r.SetHeader(RequestIDHeader, uuid.NewString())
	}
	return c.governor.Wait(r.Context())
}

func (c *Client) Get(ctx context.Context, path string, opts ...thunk.RequestOption) ([]byte, error) {
	req := thunk.NewRequest(opts...)
	r := c.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(req.Query).
		SetHeaderMultiValues(req.Header)
	return c.do(ctx, r, http.MethodGet, path)
}

func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, c.client.R().SetContext(ctx).SetBody(body), http.MethodPut, path)
}

func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, c.client.R().SetContext(ctx).SetBody(body), http.MethodPost, path)
}

func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, c.client.R().SetContext(ctx), http.MethodDelete, path)
}

func (c *Client) do(ctx context.Context, r *resty.Request, method, path string) ([]byte, error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	resp, err := r.Execute(method, path)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	if c.recorder != nil {
		c.recorder.RecordRequest(ctx, method, status, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: request failed: %w", method, path, err)
	}
	if status >= http.StatusBadRequest {
		return nil, newAPIError(method, path, status, resp.Body())
	}
	log.Debug("API request completed", "method", method, "path", path, "status", status)
	return resp.Body(), nil
}
