package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/github"
	"github.com/Didstopia/forgeops/internal/logging"
)

// Operation names a guarded bulk operation
type Operation string

const (
	OpReleases       Operation = "releases"
	OpCache          Operation = "cache"
	OpWorkflowRuns   Operation = "workflow-runs"
	OpPackagesList   Operation = "packages-list"
	OpPackagesDelete Operation = "packages-delete"
	OpClearVulns     Operation = "clear-vulns"
	OpSocialSync     Operation = "social-sync"
)

// ScopeHeader carries the classic token's OAuth scopes
const ScopeHeader = "X-OAuth-Scopes"

// RequiredScopes lists the classic OAuth scopes each operation needs
var RequiredScopes = map[Operation][]string{
	OpReleases:       {"repo"},
	OpCache:          {"repo"},
	OpWorkflowRuns:   {"repo"},
	OpPackagesList:   {"read:packages"},
	OpPackagesDelete: {"delete:packages"},
	OpClearVulns:     {"security_events"},
	OpSocialSync:     {"user:follow"},
}

// accessPaths are read-only endpoints hit after the scope check to surface
// permission problems before anything is mutated
var accessPaths = map[Operation]string{
	OpReleases:       "repos/{repo}/releases",
	OpCache:          "repos/{repo}/actions/caches",
	OpWorkflowRuns:   "repos/{repo}/actions/runs",
	OpClearVulns:     "repos/{repo}/code-scanning/alerts",
	OpPackagesList:   "{scope}/packages",
	OpPackagesDelete: "{scope}/packages",
}

// PreflightOptions scopes the permission check
type PreflightOptions struct {
	// Repository is owner/repo for repository operations
	Repository string

	// PackageScope is "orgs/<name>" or "users/<name>" for package operations
	PackageScope string

	// PackageType is sent with the package access check
	PackageType string
}

// AuthenticatedUser contains information about the authenticated user
type AuthenticatedUser struct {
	Login  string
	Name   string
	Scopes []string
}

// Preflight confirms the token works and carries the scopes op needs. An
// empty scope header (fine-grained or Actions token) is logged and accepted.
func Preflight(ctx context.Context, req github.Requester, op Operation, opts PreflightOptions, log logrus.FieldLogger) (*AuthenticatedUser, error) {
	if log == nil {
		log = logging.Discard()
	}

	resp, err := req.Execute(ctx, http.MethodGet, "user", nil)
	if err != nil {
		if gherrors.StatusCode(err) == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", gherrors.ErrPreflightFailed, gherrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %w", gherrors.ErrPreflightFailed, err)
	}

	var user gh.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: invalid user response: %w", gherrors.ErrPreflightFailed, err)
	}

	scopes := ParseScopes(resp.Header.Get(ScopeHeader))
	if err := checkScopes(op, scopes, log); err != nil {
		return nil, err
	}

	checkAccess(ctx, req, op, opts, log)

	return &AuthenticatedUser{
		Login:  user.GetLogin(),
		Name:   user.GetName(),
		Scopes: scopes,
	}, nil
}

// ParseScopes splits a scope header into a sorted list
func ParseScopes(header string) []string {
	var scopes []string
	for _, s := range strings.Split(header, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	sort.Strings(scopes)
	return scopes
}

func checkScopes(op Operation, present []string, log logrus.FieldLogger) error {
	required := RequiredScopes[op]
	if len(required) == 0 {
		return nil
	}

	if len(present) == 0 {
		logging.Event(log, "token_scopes_unavailable", logrus.Fields{
			"operation": string(op),
			"info":      "empty scope header; fine-grained or Actions token, check workflow permissions",
		}, logrus.WarnLevel)
		return nil
	}

	have := make(map[string]struct{}, len(present))
	for _, s := range present {
		have[s] = struct{}{}
	}

	var missing []string
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	logging.Event(log, "token_scopes_invalid", logrus.Fields{
		"operation": string(op),
		"missing":   missing,
		"present":   present,
	}, logrus.ErrorLevel)

	return &gherrors.ScopeError{Operation: string(op), Missing: missing, Present: present}
}

// checkAccess issues one read for op and logs denials; it never fails the run
func checkAccess(ctx context.Context, req github.Requester, op Operation, opts PreflightOptions, log logrus.FieldLogger) {
	tpl, ok := accessPaths[op]
	if !ok {
		return
	}
	if strings.Contains(tpl, "{repo}") && opts.Repository == "" {
		return
	}
	if strings.Contains(tpl, "{scope}") && opts.PackageScope == "" {
		return
	}

	path := strings.NewReplacer("{repo}", opts.Repository, "{scope}", opts.PackageScope).Replace(tpl)
	q := url.Values{"per_page": {"1"}}
	if opts.PackageType != "" && strings.Contains(tpl, "{scope}") {
		q.Set("package_type", opts.PackageType)
	}
	path += "?" + q.Encode()

	_, err := req.Execute(ctx, http.MethodGet, path, nil)
	if err == nil {
		return
	}

	status := gherrors.StatusCode(err)
	switch {
	case status == http.StatusForbidden:
		logging.Event(log, "token_permission_denied", logrus.Fields{
			"operation": string(op),
			"path":      path,
			"status":    status,
			"hint":      "check token scopes or workflow permissions",
		}, logrus.ErrorLevel)
	case status >= 400:
		logging.Event(log, "token_access_http_error", logrus.Fields{
			"operation": string(op),
			"path":      path,
			"status":    status,
			"error":     err.Error(),
		}, logrus.WarnLevel)
	default:
		logging.Event(log, "token_access_error", logrus.Fields{
			"operation": string(op),
			"path":      path,
			"error":     err.Error(),
		}, logrus.WarnLevel)
	}
}
