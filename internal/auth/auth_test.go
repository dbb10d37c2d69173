package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetToken(t *testing.T) {
	tests := []struct {
		name       string
		explicit   string
		ghToken    string
		gitHubTok  string
		configTok  string
		wantToken  string
		wantSource TokenSource
	}{
		{
			name:       "explicit token takes precedence",
			explicit:   "ghp_explicit_token",
			ghToken:    "ghp_gh_env",
			gitHubTok:  "ghp_github_env",
			wantToken:  "ghp_explicit_token",
			wantSource: TokenSourceFlag,
		},
		{
			name:       "GH_TOKEN before GITHUB_TOKEN",
			ghToken:    "ghp_gh_env",
			gitHubTok:  "ghp_github_env",
			wantToken:  "ghp_gh_env",
			wantSource: TokenSourceGHEnv,
		},
		{
			name:       "GITHUB_TOKEN fallback",
			gitHubTok:  "ghp_github_env",
			configTok:  "ghp_config",
			wantToken:  "ghp_github_env",
			wantSource: TokenSourceGitHubEnv,
		},
		{
			name:       "config file last",
			configTok:  "ghp_config",
			wantToken:  "ghp_config",
			wantSource: TokenSourceConfig,
		},
		{
			name:       "no token",
			wantSource: TokenSourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvGHToken, tt.ghToken)
			t.Setenv(EnvGitHubToken, tt.gitHubTok)

			result := GetToken(tt.explicit, tt.configTok)
			assert.Equal(t, tt.wantToken, result.Token)
			assert.Equal(t, tt.wantSource, result.Source)
			assert.Equal(t, tt.wantToken != "", result.Found())
		})
	}
}

func TestFormatTokenSource(t *testing.T) {
	assert.Equal(t, "environment variable (GH_TOKEN)", FormatTokenSource(TokenSourceGHEnv))
	assert.Equal(t, "environment variable (GITHUB_TOKEN)", FormatTokenSource(TokenSourceGitHubEnv))
	assert.Equal(t, "unknown", FormatTokenSource(TokenSourceNone))
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"ghp_1234567890abcdef", "ghp_****cdef"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskToken(tt.token), tt.token)
	}
}
