// Package util provides shared utility functions
package util

import (
	"strings"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
)

const invalidNameChars = "/@#$%^&*()?: "

// ResourceRef identifies a repository targeted by repo-level operations
type ResourceRef struct {
	Owner string
	Repo  string
}

// String returns the owner/repo form
func (r ResourceRef) String() string {
	return r.Owner + "/" + r.Repo
}

// ParseRepository accepts owner/repo or a GitHub HTTPS/SSH URL
func ParseRepository(s string) (ResourceRef, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "git@github.com:") || strings.Contains(s, "github.com/") {
		return ParseRepositoryURL(s)
	}
	return ValidateGitHubRepository(s)
}

// ValidateGitHubRepository validates and parses a GitHub repository string
// Expected format: owner/repo
func ValidateGitHubRepository(repository string) (ResourceRef, error) {
	if repository == "" {
		return ResourceRef{}, gherrors.NewConfigError("repository", gherrors.ErrMissingRepository.Error())
	}

	// At least "a/b"
	if len(repository) < 3 {
		return ResourceRef{}, gherrors.NewConfigError("repository",
			"invalid format (expected owner/repo, got: "+repository+")")
	}

	if strings.Contains(repository, "://") || strings.Contains(repository, "github.com") {
		return ResourceRef{}, gherrors.NewConfigError("repository",
			"use short format (owner/repo), not a URL")
	}

	if strings.Count(repository, "/") != 1 {
		return ResourceRef{}, gherrors.NewConfigError("repository",
			"invalid format (expected owner/repo, got: "+repository+")")
	}

	parts := strings.SplitN(repository, "/", 2)
	owner, repo := parts[0], parts[1]

	if owner == "" || repo == "" {
		return ResourceRef{}, gherrors.NewConfigError("repository",
			"owner and repo name cannot be empty")
	}

	if err := ValidateAccountName("repository", owner); err != nil {
		return ResourceRef{}, gherrors.NewConfigError("repository", "owner contains invalid characters")
	}

	if strings.ContainsAny(repo, invalidNameChars) {
		return ResourceRef{}, gherrors.NewConfigError("repository",
			"repo name contains invalid characters")
	}

	return ResourceRef{Owner: owner, Repo: repo}, nil
}

// ParseRepositoryURL extracts owner and repo from a GitHub URL
// Supports HTTPS and SSH URLs
func ParseRepositoryURL(url string) (ResourceRef, error) {
	// git@github.com:owner/repo.git
	if strings.HasPrefix(url, "git@github.com:") {
		path := strings.TrimPrefix(url, "git@github.com:")
		path = strings.TrimSuffix(path, ".git")
		return ValidateGitHubRepository(path)
	}

	// https://github.com/owner/repo.git
	if idx := strings.Index(url, "github.com/"); idx != -1 {
		path := url[idx+len("github.com/"):]
		path = strings.TrimSuffix(path, "/")
		path = strings.TrimSuffix(path, ".git")
		return ValidateGitHubRepository(path)
	}

	return ResourceRef{}, gherrors.NewConfigError("url", "not a GitHub URL")
}

// ValidateAccountName checks an organization or user login
func ValidateAccountName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return gherrors.NewConfigError(field, "cannot be empty")
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return gherrors.NewConfigError(field, "contains invalid characters")
	}
	return nil
}

// SplitList parses a comma-separated list, dropping blanks and duplicates
func SplitList(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
