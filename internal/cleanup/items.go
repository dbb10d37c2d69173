package cleanup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
)

// Item is a single listed resource that an operation may mutate
type Item interface {
	// ID is the identifier used in the mutation path
	ID() string

	// Valid reports whether the identifier is present and well-typed
	Valid() bool

	// Matches reports whether the item passes the filter
	Matches(f Filter) bool
}

// vetoer is implemented by items that can refuse mutation on their own
type vetoer interface {
	SkipReason() string
}

// Filter narrows the items an operation touches. Zero values match everything.
type Filter struct {
	// Tools restricts code-scanning items to these exact tool names
	Tools []string

	// Names restricts packages to these exact names
	Names []string

	// CreatedBefore restricts dated items to those created before this time
	CreatedBefore time.Time

	// Keep skips the first N eligible items (the most recent, in list order)
	Keep int
}

// OlderThanDays returns the cut-off time for an age filter
func OlderThanDays(days int, now time.Time) time.Time {
	if days < 0 {
		return time.Time{}
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

func (f Filter) matchesTool(tool *gh.Tool) bool {
	if len(f.Tools) == 0 {
		return true
	}
	if tool == nil || tool.Name == nil {
		return false
	}
	return contains(f.Tools, *tool.Name)
}

func (f Filter) matchesName(name string) bool {
	return len(f.Names) == 0 || contains(f.Names, name)
}

func (f Filter) matchesAge(created *gh.Timestamp) bool {
	if f.CreatedBefore.IsZero() {
		return true
	}
	if created == nil {
		return false
	}
	return created.Before(f.CreatedBefore)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// decodeInto unmarshals a raw list item, mapping failures to ErrMalformedItem
func decodeInto(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", gherrors.ErrMalformedItem, err)
	}
	return nil
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// CacheEntry is a GitHub Actions cache entry
type CacheEntry struct {
	gh.ActionsCache
}

func (c CacheEntry) ID() string            { return formatID(c.ActionsCache.ID) }
func (c CacheEntry) Valid() bool           { return c.ActionsCache.ID != nil }
func (c CacheEntry) Matches(f Filter) bool { return f.matchesAge(c.CreatedAt) }

func decodeCacheEntry(raw json.RawMessage) (Item, error) {
	var c CacheEntry
	err := decodeInto(raw, &c.ActionsCache)
	return c, err
}

// WorkflowRun is a GitHub Actions workflow run
type WorkflowRun struct {
	gh.WorkflowRun
}

func (w WorkflowRun) ID() string            { return formatID(w.WorkflowRun.ID) }
func (w WorkflowRun) Valid() bool           { return w.WorkflowRun.ID != nil }
func (w WorkflowRun) Matches(f Filter) bool { return f.matchesAge(w.CreatedAt) }

func decodeWorkflowRun(raw json.RawMessage) (Item, error) {
	var w WorkflowRun
	err := decodeInto(raw, &w.WorkflowRun)
	return w, err
}

// Release is a repository release
type Release struct {
	gh.RepositoryRelease
}

func (r Release) ID() string            { return formatID(r.RepositoryRelease.ID) }
func (r Release) Valid() bool           { return r.RepositoryRelease.ID != nil }
func (r Release) Matches(f Filter) bool { return f.matchesAge(r.CreatedAt) }

func decodeRelease(raw json.RawMessage) (Item, error) {
	var r Release
	err := decodeInto(raw, &r.RepositoryRelease)
	return r, err
}

// Package is a registry package; it is addressed by name
type Package struct {
	gh.Package
}

func (p Package) ID() string { return p.GetName() }
func (p Package) Valid() bool {
	return p.Name != nil && strings.TrimSpace(*p.Name) != ""
}
func (p Package) Matches(f Filter) bool {
	return f.matchesName(p.GetName()) && f.matchesAge(p.CreatedAt)
}

func decodePackage(raw json.RawMessage) (Item, error) {
	var p Package
	err := decodeInto(raw, &p.Package)
	return p, err
}

// PackageVersion is one version of a package. The API has returned ids both
// as numbers and as numeric strings.
type PackageVersion struct {
	VersionID int64
	Name      string
	CreatedAt *gh.Timestamp
	valid     bool
}

func (v PackageVersion) ID() string            { return strconv.FormatInt(v.VersionID, 10) }
func (v PackageVersion) Valid() bool           { return v.valid }
func (v PackageVersion) Matches(f Filter) bool { return f.matchesAge(v.CreatedAt) }

func decodePackageVersion(raw json.RawMessage) (Item, error) {
	var wire struct {
		ID        json.RawMessage `json:"id"`
		Name      string          `json:"name"`
		CreatedAt *gh.Timestamp   `json:"created_at"`
	}
	if err := decodeInto(raw, &wire); err != nil {
		return PackageVersion{}, err
	}

	v := PackageVersion{Name: wire.Name, CreatedAt: wire.CreatedAt}
	id, ok := parseFlexibleID(wire.ID)
	if !ok {
		return v, fmt.Errorf("%w: package version id %s", gherrors.ErrMalformedItem, string(wire.ID))
	}
	v.VersionID = id
	v.valid = true
	return v, nil
}

// parseFlexibleID accepts a JSON integer or a string of digits
func parseFlexibleID(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Analysis is a code-scanning analysis
type Analysis struct {
	gh.ScanningAnalysis
}

func (a Analysis) ID() string            { return formatID(a.ScanningAnalysis.ID) }
func (a Analysis) Valid() bool           { return a.ScanningAnalysis.ID != nil }
func (a Analysis) Matches(f Filter) bool { return f.matchesTool(a.Tool) }

// SkipReason refuses analyses the API marks as not deletable
func (a Analysis) SkipReason() string {
	if a.Deletable != nil && !*a.Deletable {
		return "not_deletable"
	}
	return ""
}

// ToolName returns the analysis tool name, or empty
func (a Analysis) ToolName() string {
	return a.Tool.GetName()
}

func decodeAnalysis(raw json.RawMessage) (Item, error) {
	var a Analysis
	err := decodeInto(raw, &a.ScanningAnalysis)
	return a, err
}

// Alert is a code-scanning alert; it is addressed by number
type Alert struct {
	gh.Alert
}

func (a Alert) ID() string {
	if a.Number == nil {
		return ""
	}
	return strconv.Itoa(*a.Number)
}
func (a Alert) Valid() bool           { return a.Number != nil }
func (a Alert) Matches(f Filter) bool { return f.matchesTool(a.Tool) }

// RuleID returns the rule id, falling back to the rule name
func (a Alert) RuleID() string {
	if a.Rule == nil {
		return ""
	}
	if id := a.Rule.GetID(); id != "" {
		return id
	}
	return a.Rule.GetName()
}

func decodeAlert(raw json.RawMessage) (Item, error) {
	var a Alert
	err := decodeInto(raw, &a.Alert)
	return a, err
}
