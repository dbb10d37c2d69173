package github

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
)

var fixedNow = time.Unix(1700000000, 0)

// newTestEngine returns an engine with a fixed clock and a sleeper that records waits
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *[]time.Duration) {
	t.Helper()
	var sleeps []time.Duration
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return ctx.Err()
		}),
	}
	engine, err := NewEngine("test-token", append(base, opts...)...)
	require.NoError(t, err)
	return engine, &sleeps
}

func rateLimitedResponse(status int, body string, remaining string, reset string) *http.Response {
	resp := httpmock.NewStringResponse(status, body)
	if remaining != "" {
		resp.Header.Set("X-RateLimit-Remaining", remaining)
	}
	if reset != "" {
		resp.Header.Set("X-RateLimit-Reset", reset)
	}
	return resp
}

func TestNewEngine(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		_, err := NewEngine("  ")
		assert.ErrorIs(t, err, gherrors.ErrMissingToken)
	})

	t.Run("base URL gains trailing slash", func(t *testing.T) {
		engine, err := NewEngine("test-token", WithBaseURL("https://ghe.example.com/api/v3"))
		require.NoError(t, err)
		assert.Equal(t, "https://ghe.example.com/api/v3/", engine.builder.BaseURL.String())
	})
}

func TestExecute_Headers(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://api.github.com/user",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
			assert.Equal(t, MediaType, req.Header.Get("Accept"))
			assert.Equal(t, APIVersion, req.Header.Get("X-GitHub-Api-Version"))
			assert.Equal(t, DefaultUserAgent, req.Header.Get("User-Agent"))
			return httpmock.NewStringResponse(200, `{"login":"octocat"}`), nil
		})

	engine, _ := newTestEngine(t)
	resp, err := engine.Execute(context.Background(), http.MethodGet, "/user", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var user struct {
		Login string `json:"login"`
	}
	require.NoError(t, resp.Decode(&user))
	assert.Equal(t, "octocat", user.Login)
}

func TestExecute_JSONBody(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("PATCH", "https://api.github.com/repos/owner/repo/code-scanning/alerts/7",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			data, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			var body map[string]any
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, "false_positive", body["dismissed_reason"])
			return httpmock.NewStringResponse(200, `{}`), nil
		})

	engine, _ := newTestEngine(t)
	_, err := engine.Execute(context.Background(), http.MethodPatch,
		"repos/owner/repo/code-scanning/alerts/7", map[string]string{"dismissed_reason": "false_positive"})
	require.NoError(t, err)
}

func TestExecute_UnsupportedMethod(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	engine, _ := newTestEngine(t)
	resp, err := engine.Execute(context.Background(), http.MethodHead, "user", nil)
	assert.Nil(t, resp)
	assert.True(t, gherrors.IsConfigError(err))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestExecute_HTTPError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("DELETE", "https://api.github.com/repos/owner/repo/actions/caches/1",
		httpmock.NewStringResponder(404, `{"message":"Not Found"}`))

	engine, sleeps := newTestEngine(t)
	resp, err := engine.Execute(context.Background(), http.MethodDelete, "repos/owner/repo/actions/caches/1", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
	assert.True(t, gherrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "Not Found")
	assert.Empty(t, *sleeps)
}

func TestExecute_AbsoluteURL(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("DELETE",
		"https://api.github.com/repos/owner/repo/code-scanning/analyses/2?confirm_delete=true",
		httpmock.NewStringResponder(204, ""))

	engine, _ := newTestEngine(t)
	resp, err := engine.Execute(context.Background(), http.MethodDelete,
		"https://api.github.com/repos/owner/repo/code-scanning/analyses/2?confirm_delete=true", nil)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestExecute_RejectsForeignHost(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterNoResponder(httpmock.NewStringResponder(204, ""))

	engine, _ := newTestEngine(t)
	for _, target := range []string{
		"https://evil.example.com/repos/owner/repo/code-scanning/analyses/2",
		"http://api.github.com/repos/owner/repo/code-scanning/analyses/2",
		"https://api.github.com.evil.example.com/analyses/2",
	} {
		resp, err := engine.Execute(context.Background(), http.MethodDelete, target, nil)
		assert.Nil(t, resp, target)
		assert.ErrorIs(t, err, gherrors.ErrForeignHost, target)
	}
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestExecute_RateLimit(t *testing.T) {
	reset := strconv.FormatInt(fixedNow.Add(5*time.Second).Unix(), 10)

	tests := []struct {
		name          string
		first         func() *http.Response
		second        func() *http.Response
		expectedCalls int
		expectedWait  time.Duration
		expectStatus  int
		expectLimited bool
	}{
		{
			name: "exhausted budget waits until reset and retries once",
			first: func() *http.Response {
				return rateLimitedResponse(403, `{"message":"API rate limit exceeded"}`, "0", reset)
			},
			second:        func() *http.Response { return httpmock.NewStringResponse(200, `[]`) },
			expectedCalls: 2,
			expectedWait:  6 * time.Second,
			expectStatus:  200,
		},
		{
			name: "403 mentioning the rate limit without headers uses fallback",
			first: func() *http.Response {
				return rateLimitedResponse(403, `{"message":"You have exceeded a secondary Rate Limit"}`, "", "")
			},
			second:        func() *http.Response { return httpmock.NewStringResponse(200, `[]`) },
			expectedCalls: 2,
			expectedWait:  DefaultFallbackWait,
			expectStatus:  200,
		},
		{
			name: "reset in the past clamps wait to zero",
			first: func() *http.Response {
				past := strconv.FormatInt(fixedNow.Add(-10*time.Second).Unix(), 10)
				return rateLimitedResponse(403, `{"message":"API rate limit exceeded"}`, "0", past)
			},
			second:        func() *http.Response { return httpmock.NewStringResponse(200, `[]`) },
			expectedCalls: 2,
			expectedWait:  0,
			expectStatus:  200,
		},
		{
			name: "still limited after retry degrades to error",
			first: func() *http.Response {
				return rateLimitedResponse(403, `{"message":"API rate limit exceeded"}`, "0", reset)
			},
			second: func() *http.Response {
				return rateLimitedResponse(403, `{"message":"API rate limit exceeded"}`, "0", reset)
			},
			expectedCalls: 2,
			expectedWait:  6 * time.Second,
			expectStatus:  403,
			expectLimited: true,
		},
		{
			name: "exhausted budget on a successful response still retries once",
			first: func() *http.Response {
				return rateLimitedResponse(200, `[]`, "0", reset)
			},
			second:        func() *http.Response { return httpmock.NewStringResponse(200, `[{"login":"octocat"}]`) },
			expectedCalls: 2,
			expectedWait:  6 * time.Second,
			expectStatus:  200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Activate()
			defer httpmock.DeactivateAndReset()

			calls := 0
			httpmock.RegisterResponder("GET", "https://api.github.com/user/followers",
				func(req *http.Request) (*http.Response, error) {
					calls++
					if calls == 1 {
						return tt.first(), nil
					}
					return tt.second(), nil
				})

			engine, sleeps := newTestEngine(t)
			resp, err := engine.Execute(context.Background(), http.MethodGet, "user/followers", nil)

			assert.Equal(t, tt.expectedCalls, calls)
			require.Len(t, *sleeps, 1)
			assert.Equal(t, tt.expectedWait, (*sleeps)[0])
			require.NotNil(t, resp)
			assert.Equal(t, tt.expectStatus, resp.StatusCode)
			if tt.expectLimited {
				assert.True(t, gherrors.IsRateLimited(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExecute_PlainForbiddenIsNotRetried(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("DELETE", "https://api.github.com/user/packages/container/app",
		httpmock.NewStringResponder(403, `{"message":"Must have admin rights"}`))

	engine, sleeps := newTestEngine(t)
	_, err := engine.Execute(context.Background(), http.MethodDelete, "user/packages/container/app", nil)
	assert.Equal(t, 403, gherrors.StatusCode(err))
	assert.False(t, gherrors.IsRateLimited(err))
	assert.Empty(t, *sleeps)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestExecute_CancelledDuringWait(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://api.github.com/user/following",
		func(req *http.Request) (*http.Response, error) {
			return rateLimitedResponse(403, `{"message":"API rate limit exceeded"}`, "0", ""), nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	engine, err := NewEngine("test-token",
		WithFallbackWait(time.Hour),
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			cancel()
			return sleepContext(ctx, d)
		}))
	require.NoError(t, err)

	resp, err := engine.Execute(ctx, http.MethodGet, "user/following", nil)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Bad credentials", errorMessage([]byte(`{"message":"Bad credentials"}`)))
	assert.Equal(t, "plain text failure", errorMessage([]byte("plain text failure")))

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, errorMessage(long), maxErrorSnippet)
}
