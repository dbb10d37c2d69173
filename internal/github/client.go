package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/logging"
)

// API defaults
const (
	DefaultBaseURL   = "https://api.github.com/"
	DefaultUserAgent = "forgeops"
	MediaType        = "application/vnd.github+json"
	APIVersion       = "2022-11-28"

	maxErrorSnippet = 300
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodDelete: {},
	http.MethodPatch:  {},
	http.MethodPost:   {},
	http.MethodPut:    {},
}

// Response is a fully read API response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RateLimit  RateLimitState
}

// Success reports whether the status is 2xx
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Engine sends authenticated requests to the GitHub API and absorbs rate
// limiting by waiting and retrying once
type Engine struct {
	builder      *gh.Client
	httpClient   *http.Client
	log          logrus.FieldLogger
	sleep        func(ctx context.Context, d time.Duration) error
	now          func() time.Time
	fallbackWait time.Duration

	baseURL   string
	userAgent string
	base      *http.Client
}

// Option configures an Engine
type Option func(*Engine)

// WithBaseURL points the engine at a different API root (GitHub Enterprise, tests)
func WithBaseURL(baseURL string) Option {
	return func(e *Engine) { e.baseURL = baseURL }
}

// WithHTTPClient sets the client whose transport carries the authenticated requests
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.base = c }
}

// WithLogger sets the logger used for request and rate limit events
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithSleeper replaces the context-aware sleep used while rate limited
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = fn }
}

// WithClock replaces the clock used to compute rate limit waits
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

// WithFallbackWait sets the wait used when no reset time is known
func WithFallbackWait(d time.Duration) Option {
	return func(e *Engine) { e.fallbackWait = d }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(e *Engine) { e.userAgent = ua }
}

// NewEngine creates a request engine authenticated with the provided token
func NewEngine(token string, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(token) == "" {
		return nil, gherrors.ErrMissingToken
	}

	e := &Engine{
		log:          logging.Discard(),
		sleep:        sleepContext,
		now:          time.Now,
		fallbackWait: DefaultFallbackWait,
		baseURL:      DefaultBaseURL,
		userAgent:    DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(e)
	}

	ctx := context.Background()
	if e.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.base)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	e.httpClient = oauth2.NewClient(ctx, ts)

	baseURL := e.baseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, gherrors.NewConfigError("base-url", err.Error())
	}

	e.builder = gh.NewClient(e.httpClient)
	e.builder.BaseURL = parsed
	e.builder.UserAgent = e.userAgent

	return e, nil
}

// Execute performs one logical API call. Rate limited responses are retried
// exactly once after waiting; non-2xx outcomes return the response together
// with an *errors.HTTPError so callers can inspect the status and body.
func (e *Engine) Execute(ctx context.Context, method, path string, body any) (*Response, error) {
	if _, ok := allowedMethods[method]; !ok {
		return nil, gherrors.NewConfigError("method", fmt.Sprintf("unsupported HTTP method %q", method))
	}

	resp, err := e.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if isRateLimited(resp) {
		wait := rateLimitWait(resp.RateLimit, e.now(), e.fallbackWait)
		logging.Event(e.log, "rate_limit_wait", logrus.Fields{
			"wait_seconds": int(wait.Round(time.Second) / time.Second),
			"method":       method,
			"status":       resp.StatusCode,
		}, logrus.WarnLevel)

		if err := e.sleep(ctx, wait); err != nil {
			return nil, err
		}

		resp, err = e.do(ctx, method, path, body)
		if err != nil {
			return nil, err
		}
		if !resp.Success() && isRateLimited(resp) {
			return resp, gherrors.NewHTTPError(resp.StatusCode, errorMessage(resp.Body), gherrors.ErrRateLimited)
		}
	}

	if !resp.Success() {
		return resp, gherrors.NewHTTPError(resp.StatusCode, errorMessage(resp.Body), nil)
	}
	return resp, nil
}

// do sends a single request and reads the whole response
func (e *Engine) do(ctx context.Context, method, path string, body any) (*Response, error) {
	if err := e.checkHost(path); err != nil {
		return nil, err
	}

	req, err := e.builder.NewRequest(method, strings.TrimPrefix(path, "/"), body,
		gh.WithVersion(APIVersion),
		func(r *http.Request) { r.Header.Set("Accept", MediaType) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req = req.WithContext(ctx)

	start := time.Now()
	httpResp, err := e.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		RateLimit:  parseRateLimit(httpResp.Header),
	}

	logging.Event(e.log, "http_request", logrus.Fields{
		"method":      method,
		"path":        req.URL.Path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}, logrus.DebugLevel)

	return resp, nil
}

// checkHost rejects absolute URLs that point away from the API root. Follow-up
// URLs come from response bodies and must not carry the token elsewhere.
func (e *Engine) checkHost(path string) error {
	u, err := url.Parse(path)
	if err != nil || !u.IsAbs() {
		return nil
	}
	base := e.builder.BaseURL
	if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
		return fmt.Errorf("%w: %s", gherrors.ErrForeignHost, u.Host)
	}
	return nil
}

// errorMessage extracts the API error message, falling back to a body snippet
func errorMessage(body []byte) string {
	var apiErr gh.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return snippet(body)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		return s[:maxErrorSnippet]
	}
	return s
}
