// Package api is the client for the remote résumé tailoring service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// maxResponseSize bounds how much of a JSON response is read
const maxResponseSize = 32 << 20

// TokenSource supplies the bearer token for authenticated calls
type TokenSource interface {
	// Current returns a usable token or an auth error
	Current() (string, error)
	// Optional returns a usable token or ""
	Optional() string
}

// Recorder receives one observation per remote call
type Recorder interface {
	RecordAPICall(ctx context.Context, family, endpoint string, duration time.Duration, err error)
}

type tokenKey struct{}

// WithToken makes calls made with ctx use token instead of the client's
// token source. The local server uses it to forward a caller's token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

type authMode int

const (
	authNone authMode = iota
	authOptional
	authRequired
)

// response is a fully read HTTP response
type response struct {
	status int
	header http.Header
	body   []byte
}

// Client talks to the remote tailoring API
type Client struct {
	baseURL       *url.URL
	http          *retryablehttp.Client
	limiter       *rate.Limiter
	breakers      map[Family]*Breaker
	tokens        TokenSource
	recorder      Recorder
	userAgent     string
	maxUploadSize int64
	logger        *errors.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates an API client from configuration
func NewClient(cfg *config.APIConfig, tokens TokenSource, logger *errors.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid API base URL %q", cfg.BaseURL), err)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	rc.Logger = nil
	if logger != nil {
		rc.Logger = logger
	}

	c := &Client{
		baseURL:       base,
		http:          rc,
		breakers:      make(map[Family]*Breaker, len(Families)),
		tokens:        tokens,
		userAgent:     cfg.UserAgent,
		maxUploadSize: cfg.MaxUploadSize,
		logger:        logger,
	}
	for _, family := range Families {
		c.breakers[family] = NewBreaker(family, &cfg.CircuitBreaker, logger)
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerSecond > 0 {
		burst := cfg.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the remote service root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// resolve turns an endpoint path or a server-provided URL into an absolute URL
func (c *Client) resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, fmt.Sprintf("invalid URL %q", ref), err)
	}
	if u.IsAbs() {
		return u, nil
	}
	base := *c.baseURL
	base.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(u.Path, "/")
	base.RawQuery = u.RawQuery
	return &base, nil
}

// sameOrigin reports whether u points at the service root's scheme and host.
// Credentials are only ever sent there.
func (c *Client) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.baseURL.Scheme) && strings.EqualFold(u.Host, c.baseURL.Host)
}

func (c *Client) token(ctx context.Context, mode authMode) (string, error) {
	if mode == authNone {
		return "", nil
	}
	if token, ok := tokenFromContext(ctx); ok {
		return token, nil
	}
	if c.tokens == nil {
		if mode == authRequired {
			return "", errors.NewAuthError(errors.ErrCodeUnauthenticated, "not logged in", nil)
		}
		return "", nil
	}
	if mode == authRequired {
		return c.tokens.Current()
	}
	return c.tokens.Optional(), nil
}

// call is one request to the remote API
type call struct {
	family      Family
	method      string
	path        string
	body        []byte
	contentType string
	auth        authMode
	accept      string
}

func (c *Client) do(ctx context.Context, in call) (*response, error) {
	start := time.Now()
	resp, err := c.execute(ctx, in)
	if c.recorder != nil {
		c.recorder.RecordAPICall(ctx, string(in.family), in.method+" "+in.path, time.Since(start), err)
	}
	if err != nil && c.logger != nil {
		c.logger.LogError(err, "Remote API call failed", "family", in.family, "endpoint", in.path)
	}
	return resp, err
}

func (c *Client) execute(ctx context.Context, in call) (*response, error) {
	u, err := c.resolve(in.path)
	if err != nil {
		return nil, err
	}
	target := u.String()

	mode := in.auth
	if !c.sameOrigin(u) {
		mode = authNone
	}
	token, err := c.token(ctx, mode)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "request cancelled while throttled", err)
		}
	}

	return c.breakers[in.family].Execute(func() (*response, error) {
		var body any
		if in.body != nil {
			body = in.body
		}
		req, err := retryablehttp.NewRequestWithContext(ctx, in.method, target, body)
		if err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build request", err)
		}
		if in.contentType != "" {
			req.Header.Set("Content-Type", in.contentType)
		}
		accept := in.accept
		if accept == "" {
			accept = "application/json"
		}
		req.Header.Set("Accept", accept)
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return nil, transportError(ctx, err)
		}
		defer func() { _ = httpResp.Body.Close() }()

		limit := int64(maxResponseSize)
		if in.accept != "" && c.maxUploadSize > limit {
			limit = c.maxUploadSize
		}
		data, err := io.ReadAll(io.LimitReader(httpResp.Body, limit))
		if err != nil {
			return nil, errors.NewNetworkError(errors.ErrCodeUpstreamFailed, "failed to read response", err)
		}

		resp := &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}
		if resp.status >= 400 {
			return resp, statusError(in.family, resp)
		}
		return resp, nil
	})
}

func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "request cancelled", ctx.Err())
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "remote service timed out", err)
	}
	return errors.NewNetworkError(errors.ErrCodeUpstreamFailed, "remote service unreachable", err)
}

// statusError maps an HTTP failure to the application error taxonomy. A
// 403 from the analysis endpoint is the trial quota signal.
func statusError(family Family, resp *response) error {
	detail := errorDetail(resp.body)
	switch {
	case resp.status == http.StatusForbidden && family == FamilyAnalysis:
		if detail == "" {
			detail = "Free analysis limit reached"
		}
		return errors.NewQuotaError(detail, nil).WithContext("status", resp.status)
	case resp.status == http.StatusUnauthorized:
		if detail == "" {
			detail = "authentication required"
		}
		return errors.NewAuthError(errors.ErrCodeUnauthenticated, detail, nil).WithContext("status", resp.status)
	case resp.status < 500:
		if detail == "" {
			detail = http.StatusText(resp.status)
		}
		return errors.NewValidationError(errors.ErrCodeUpstreamRejected, detail, nil).WithContext("status", resp.status)
	default:
		if detail == "" {
			detail = http.StatusText(resp.status)
		}
		return errors.NewNetworkError(errors.ErrCodeUpstreamFailed, detail, nil).WithContext("status", resp.status)
	}
}

// errorDetail extracts the message of a {"detail": ...} error body. The
// detail may be a string or a list of validation problems.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(truncate(body, 200)))
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return string(payload.Detail)
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

func (c *Client) getJSON(ctx context.Context, family Family, path string, auth authMode, out any) ([]byte, error) {
	resp, err := c.do(ctx, call{family: family, method: http.MethodGet, path: path, auth: auth})
	if err != nil {
		return nil, err
	}
	return resp.body, decode(resp.body, out)
}

func (c *Client) sendJSON(ctx context.Context, family Family, method, path string, auth authMode, payload, out any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to encode request", err)
	}
	resp, err := c.do(ctx, call{
		family:      family,
		method:      method,
		path:        path,
		body:        body,
		contentType: "application/json",
		auth:        auth,
	})
	if err != nil {
		return nil, err
	}
	return resp.body, decode(resp.body, out)
}

func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
		return errors.NewValidationError(errors.ErrCodeSchemaMismatch, "failed to decode response", err)
	}
	return nil
}

// GetStats returns limiter and breaker statistics
func (c *Client) GetStats() map[string]any {
	breakers := make(map[string]any, len(c.breakers))
	for family, b := range c.breakers {
		breakers[string(family)] = b.GetStats()
	}
	stats := map[string]any{
		"base_url":         c.baseURL.String(),
		"circuit_breakers": breakers,
		"rate_limited":     c.limiter != nil,
	}
	if c.limiter != nil {
		stats["rate_limit_tokens"] = c.limiter.Tokens()
	}
	return stats
}

// IsHealthy reports whether every circuit breaker is closed
func (c *Client) IsHealthy() bool {
	for _, b := range c.breakers {
		if !b.IsHealthy() {
			return false
		}
	}
	return true
}
