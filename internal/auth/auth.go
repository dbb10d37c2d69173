// Package auth resolves the GitHub token and checks it before bulk operations
package auth

import (
	"os"
)

const (
	// EnvGHToken is the preferred environment variable for the token
	EnvGHToken = "GH_TOKEN"

	// EnvGitHubToken is the fallback environment variable, set by GitHub Actions
	EnvGitHubToken = "GITHUB_TOKEN"
)

// TokenSource represents where the token was obtained from
type TokenSource string

const (
	TokenSourceFlag      TokenSource = "flag"
	TokenSourceGHEnv     TokenSource = "gh_env"
	TokenSourceGitHubEnv TokenSource = "github_env"
	TokenSourceConfig    TokenSource = "config"
	TokenSourceNone      TokenSource = "none"
)

// TokenResult contains the resolved token and its source
type TokenResult struct {
	Token  string
	Source TokenSource
}

// Found reports whether a token was resolved
func (r *TokenResult) Found() bool {
	return r.Token != ""
}

// GetToken resolves the GitHub token using the following priority:
// 1. Explicit token (from --token flag)
// 2. GH_TOKEN environment variable
// 3. GITHUB_TOKEN environment variable
// 4. Token stored in the config file
func GetToken(explicitToken, configToken string) *TokenResult {
	if explicitToken != "" {
		return &TokenResult{Token: explicitToken, Source: TokenSourceFlag}
	}

	if token := os.Getenv(EnvGHToken); token != "" {
		return &TokenResult{Token: token, Source: TokenSourceGHEnv}
	}

	if token := os.Getenv(EnvGitHubToken); token != "" {
		return &TokenResult{Token: token, Source: TokenSourceGitHubEnv}
	}

	if configToken != "" {
		return &TokenResult{Token: configToken, Source: TokenSourceConfig}
	}

	return &TokenResult{Source: TokenSourceNone}
}

// FormatTokenSource returns a human-readable description of the token source
func FormatTokenSource(source TokenSource) string {
	switch source {
	case TokenSourceFlag:
		return "command line flag"
	case TokenSourceGHEnv:
		return "environment variable (GH_TOKEN)"
	case TokenSourceGitHubEnv:
		return "environment variable (GITHUB_TOKEN)"
	case TokenSourceConfig:
		return "config file (~/.forgeops.yaml)"
	default:
		return "unknown"
	}
}

// MaskToken returns a masked version of the token for display
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
