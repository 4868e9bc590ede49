// Package fetch provides the shared HTTP session used by every parser.
//
// A Session bounds connections per host, applies a default per-request timeout,
// optionally rate-limits requests, and traces each request with OpenTelemetry.
// Transport-level failures are returned as *TransportError so callers can tell
// them apart from parse failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "around-the-grounds/1.0 (github.com/pfrederiksen/around-the-grounds)"
	DefaultTimeout   = 60 * time.Second
	DefaultMaxConns  = 5

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 16 << 20
)

// Config controls a Session.
type Config struct {
	MaxConns      int
	Timeout       time.Duration
	UserAgent     string
	RatePerSecond float64 // 0 disables rate limiting
	Burst         int
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		MaxConns:  DefaultMaxConns,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Session is a pooled HTTP client shared across concurrent fetches.
//
// MaxConns caps connections to any single host, not the pool as a whole.
// Total concurrency across hosts is bounded by the caller, normally the
// coordinator's MaxConcurrent.
type Session struct {
	client    *http.Client
	transport *http.Transport
	limiter   *rate.Limiter
	userAgent string
	timeout   time.Duration
}

// NewSession creates a Session from cfg, filling zero values with defaults.
func NewSession(cfg Config) *Session {
	def := DefaultConfig()
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = def.MaxConns
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = cfg.MaxConns
	transport.MaxIdleConns = cfg.MaxConns
	transport.MaxIdleConnsPerHost = cfg.MaxConns

	s := &Session{
		client: &http.Client{
			Transport: otelhttp.NewTransport(transport),
		},
		transport: transport,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return s
}

// HTTPClient returns the traced client backing the Session, for SDKs that
// take an *http.Client and should share its connection pool.
func (s *Session) HTTPClient() *http.Client {
	return s.client
}

// Close releases idle connections. The Session must not be used afterwards.
func (s *Session) Close() {
	s.transport.CloseIdleConnections()
}

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the response has status 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// RequestOption customizes a single request.
type RequestOption func(*http.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithQuery merges params into the request URL's query string.
func WithQuery(params url.Values) RequestOption {
	return func(r *http.Request) {
		q := r.URL.Query()
		for k, vs := range params {
			q.Del(k)
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		r.URL.RawQuery = q.Encode()
	}
}

// Get fetches rawURL and reads the whole body. Any status code is returned
// as a Response; only transport failures produce an error.
func (s *Session) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: rawURL, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	return &Response{
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// TransportError is a failure to complete an HTTP exchange.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline or network timeout.
func (e *TransportError) Timeout() bool {
	return IsTimeout(e.Err)
}

// IsTimeout reports whether err is a context deadline or a net timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
