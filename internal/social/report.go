package social

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Didstopia/forgeops/internal/cleanup"
	"github.com/Didstopia/forgeops/internal/logging"
)

// DefaultReportPath is where the sync report is written unless overridden
const DefaultReportPath = "social_sync_report.json"

// Report describes one sync run. Credentials never appear in it.
type Report struct {
	StartedAt      time.Time         `json:"started_at" yaml:"started_at"`
	CompletedAt    time.Time         `json:"completed_at" yaml:"completed_at"`
	DryRun         bool              `json:"dry_run" yaml:"dry_run"`
	FollowersCount int               `json:"followers_count" yaml:"followers_count"`
	FollowingCount int               `json:"following_count" yaml:"following_count"`
	ToFollow       []string          `json:"to_follow" yaml:"to_follow"`
	ToUnfollow     []string          `json:"to_unfollow" yaml:"to_unfollow"`
	Followed       []string          `json:"followed" yaml:"followed"`
	Unfollowed     []string          `json:"unfollowed" yaml:"unfollowed"`
	Skipped        map[string]string `json:"skipped" yaml:"skipped"`
	Allowlist      []string          `json:"allowlist" yaml:"allowlist"`
	Blocklist      []string          `json:"blocklist" yaml:"blocklist"`
	Result         cleanup.Result    `json:"result" yaml:"result"`
}

func newReport(started time.Time, opts SyncOptions) *Report {
	return &Report{
		StartedAt:  started,
		DryRun:     opts.DryRun,
		ToFollow:   []string{},
		ToUnfollow: []string{},
		Followed:   []string{},
		Unfollowed: []string{},
		Skipped:    map[string]string{},
		Allowlist:  newSet(opts.Allowlist).sorted(),
		Blocklist:  newSet(opts.Blocklist).sorted(),
		Result:     cleanup.Result{Operation: "social_sync"},
	}
}

func (r *Report) skip(login, reason string) {
	r.Skipped[login] = reason
	r.Result.Skipped++
}

// WriteReport writes the report atomically: JSON by default, YAML when the
// path ends in .yaml or .yml
func WriteReport(path string, report *Report, log logrus.FieldLogger) error {
	if path == "" {
		path = DefaultReportPath
	}
	if log == nil {
		log = logging.Discard()
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(report)
	default:
		data, err = json.MarshalIndent(report, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp report file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp report file: %w", err)
	}

	logging.Event(log, "social_sync_report_written", logrus.Fields{
		"path":  path,
		"bytes": len(data),
	}, logrus.InfoLevel)

	return nil
}
