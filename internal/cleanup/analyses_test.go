package cleanup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/github"
)

const analysesPath = "repos/owner/repo/code-scanning/analyses"

func analysisPage() []any {
	return []any{
		map[string]any{"id": 41, "tool": map[string]any{"name": "Trivy"}, "deletable": true},
	}
}

func TestDeleteAnalysis_Protocol(t *testing.T) {
	tests := []struct {
		name        string
		responses   []func(path string) (*github.Response, error)
		wantPaths   []string
		wantErr     bool
		wantSuccess int
	}{
		{
			name: "204 completes in one call",
			responses: []func(string) (*github.Response, error){
				func(string) (*github.Response, error) { return github.MockResponse(204, nil) },
			},
			wantPaths:   []string{analysesPath + "/41"},
			wantSuccess: 1,
		},
		{
			name: "400 asking for confirmation is retried with confirm_delete",
			responses: []func(string) (*github.Response, error){
				func(string) (*github.Response, error) {
					return github.MockResponse(400, `{"message":"Analysis is last of its type and deletion may cause alert loss (confirm_delete: true required)."}`)
				},
				func(string) (*github.Response, error) { return github.MockResponse(204, nil) },
			},
			wantPaths:   []string{analysesPath + "/41", analysesPath + "/41?confirm_delete=true"},
			wantSuccess: 1,
		},
		{
			name: "next analysis URL is followed with confirmation",
			responses: []func(string) (*github.Response, error){
				func(string) (*github.Response, error) {
					return github.MockResponse(200, map[string]any{
						"next_analysis_url": "https://api.github.com/" + analysesPath + "/40",
					})
				},
				func(string) (*github.Response, error) { return github.MockResponse(204, nil) },
			},
			wantPaths: []string{
				analysesPath + "/41",
				"https://api.github.com/" + analysesPath + "/40?confirm_delete=true",
			},
			wantSuccess: 1,
		},
		{
			name: "confirm URL is preferred and not re-confirmed",
			responses: []func(string) (*github.Response, error){
				func(string) (*github.Response, error) {
					return github.MockResponse(202, map[string]any{
						"next_analysis_url":  "https://api.github.com/" + analysesPath + "/40",
						"confirm_delete_url": "https://api.github.com/" + analysesPath + "/40?confirm_delete",
					})
				},
				func(string) (*github.Response, error) { return github.MockResponse(200, `{}`) },
			},
			wantPaths: []string{
				analysesPath + "/41",
				"https://api.github.com/" + analysesPath + "/40?confirm_delete",
			},
			wantSuccess: 1,
		},
		{
			name: "second 400 fails the item",
			responses: []func(string) (*github.Response, error){
				func(string) (*github.Response, error) {
					return github.MockResponse(400, `{"message":"confirm_delete required"}`)
				},
				func(string) (*github.Response, error) {
					return github.MockResponse(400, `{"message":"confirm_delete required"}`)
				},
			},
			wantPaths: []string{analysesPath + "/41", analysesPath + "/41?confirm_delete=true"},
			wantErr:   true,
		},
		{
			name: "unexpected status fails the item",
			responses: []func(string) (*github.Response, error){
				func(string) (*github.Response, error) { return github.MockResponse(500, `{"message":"oops"}`) },
			},
			wantPaths: []string{analysesPath + "/41"},
			wantErr:   true,
		},
		{
			name: "plain 400 is not retried",
			responses: []func(string) (*github.Response, error){
				func(string) (*github.Response, error) { return github.MockResponse(400, `{"message":"Bad Request"}`) },
			},
			wantPaths: []string{analysesPath + "/41"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var paths []string
			mock := github.NewMockRequester()
			mock.ExecuteFunc = listHandler(analysesPath, analysisPage(), func(method, path string, body any) (*github.Response, error) {
				require.Equal(t, http.MethodDelete, method)
				paths = append(paths, path)
				i := len(paths) - 1
				require.Less(t, i, len(tt.responses), "unexpected extra call to %s", path)
				return tt.responses[i](path)
			})

			svc := NewService(mock, nil, Options{})
			result, err := svc.DeleteAnalyses(context.Background(), testRef, Filter{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantPaths, paths)
			assert.Equal(t, tt.wantSuccess, result.Succeeded)
			if tt.wantErr {
				assert.Equal(t, 1, result.Failed)
			}
			assertConserved(t, result)
		})
	}
}

func TestDeleteAnalysis_HopLimit(t *testing.T) {
	calls := 0
	mock := github.NewMockRequester()
	mock.ExecuteFunc = func(ctx context.Context, method, path string, body any) (*github.Response, error) {
		calls++
		return github.MockResponse(200, map[string]any{
			"next_analysis_url": fmt.Sprintf("https://api.github.com/%s/%d", analysesPath, calls),
		})
	}

	svc := NewService(mock, nil, Options{})
	err := svc.deleteAnalysis(context.Background(), analysesPath+"/41", "41")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gherrors.ErrFollowUpLoop))
	assert.Equal(t, 1+MaxFollowUpHops, calls)
}

func TestDeleteAnalyses_FiltersToolsAndDeletable(t *testing.T) {
	mock := github.NewMockRequester()
	mock.ExecuteFunc = listHandler(analysesPath, []any{
		map[string]any{"id": 1, "tool": map[string]any{"name": "Trivy"}, "deletable": true},
		map[string]any{"id": 2, "tool": map[string]any{"name": "CodeQL"}, "deletable": true},
		map[string]any{"id": 3, "tool": map[string]any{"name": "Grype"}, "deletable": false},
		map[string]any{"id": 4, "tool": map[string]any{"name": "trivy"}, "deletable": true},
		map[string]any{"id": 5},
		map[string]any{"tool": map[string]any{"name": "Trivy"}},
	}, nil)

	svc := NewService(mock, nil, Options{})
	result, err := svc.DeleteAnalyses(context.Background(), testRef, Filter{Tools: DefaultTools})
	require.NoError(t, err)

	deletes := mock.CallsTo(http.MethodDelete)
	require.Len(t, deletes, 1)
	assert.True(t, strings.HasSuffix(deletes[0].Path, "/1"))
	assert.Equal(t, &Result{Operation: "analysis_delete", Attempted: 6, Succeeded: 1, Skipped: 5}, result)
}

func TestDeleteAnalyses_EndToEnd(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://api.github.com/repos/owner/repo/code-scanning/analyses",
		httpmock.NewJsonResponderOrPanic(200, analysisPage()))

	deleteCalls := 0
	httpmock.RegisterResponder("DELETE", "https://api.github.com/repos/owner/repo/code-scanning/analyses/41",
		func(req *http.Request) (*http.Response, error) {
			deleteCalls++
			if req.URL.Query().Get("confirm_delete") == "true" {
				return httpmock.NewStringResponse(204, ""), nil
			}
			return httpmock.NewStringResponse(400, `{"message":"confirm_delete is required"}`), nil
		})

	engine, err := github.NewEngine("test-token")
	require.NoError(t, err)

	svc := NewService(engine, nil, Options{})
	result, err := svc.DeleteAnalyses(context.Background(), testRef, Filter{Tools: []string{"Trivy"}})
	require.NoError(t, err)

	assert.Equal(t, 2, deleteCalls)
	assert.Equal(t, 1, result.Succeeded)
}

func TestDeleteAnalyses_ForeignFollowUpIsRefused(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://api.github.com/repos/owner/repo/code-scanning/analyses",
		httpmock.NewJsonResponderOrPanic(200, analysisPage()))
	httpmock.RegisterResponder("DELETE", "https://api.github.com/repos/owner/repo/code-scanning/analyses/41",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{
			"next_analysis_url": "https://collector.example.com/analyses/42",
		}))

	foreignCalls := 0
	httpmock.RegisterResponder("DELETE", `=~^https://collector\.example\.com/`,
		func(req *http.Request) (*http.Response, error) {
			foreignCalls++
			return httpmock.NewStringResponse(204, ""), nil
		})

	engine, err := github.NewEngine("test-token")
	require.NoError(t, err)

	svc := NewService(engine, nil, Options{})
	result, err := svc.DeleteAnalyses(context.Background(), testRef, Filter{Tools: []string{"Trivy"}})
	require.NoError(t, err)

	assert.Zero(t, foreignCalls)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Succeeded)
}

func TestWithConfirm(t *testing.T) {
	assert.Equal(t, "a/41?confirm_delete=true", withConfirm("a/41"))
	assert.Equal(t, "a/41?x=1&confirm_delete=true", withConfirm("a/41?x=1"))
	assert.Equal(t, "a/41?confirm_delete=true", withConfirm("a/41?confirm_delete=true"))
	assert.Equal(t, "a/41?confirm_delete", withConfirm("a/41?confirm_delete"))
}
