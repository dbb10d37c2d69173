// Package config provides configuration management for forgeops
package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFileName is the name of the config file (without extension)
	DefaultConfigFileName = ".forgeops"
	// DefaultConfigFileType is the config file extension
	DefaultConfigFileType = "yaml"
)

// Config holds all application configuration
type Config struct {
	// Global flags
	Verbose  bool   `yaml:"verbose"`
	DryRun   bool   `yaml:"dry-run"`
	Token    string `yaml:"token"`
	PageSize int    `yaml:"page-size"`
	LogJSON  bool   `yaml:"log-json"`
	LogLevel string `yaml:"log-level"`

	// Repository target, either as owner/repo or split
	Repository string `yaml:"repository"`
	Owner      string `yaml:"owner"`
	Repo       string `yaml:"repo"`

	// Release cleanup
	Keep          int `yaml:"keep"`
	OlderThanDays int `yaml:"older-than-days"`

	// Package cleanup
	Org         string `yaml:"org"`
	User        string `yaml:"user"`
	PackageType string `yaml:"type"`

	// Code scanning
	Tools   []string `yaml:"tools"`
	Reason  string   `yaml:"reason"`
	Comment string   `yaml:"comment"`
	State   string   `yaml:"state"`

	// Social sync
	SyncDryRun bool     `yaml:"sync-dry-run"`
	Allowlist  []string `yaml:"allowlist"`
	Blocklist  []string `yaml:"blocklist"`
	ReportOut  string   `yaml:"report-out"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Verbose:       false,
		DryRun:        false,
		Token:         "",
		PageSize:      100,
		LogJSON:       false,
		LogLevel:      "info",
		Keep:          -1,
		OlderThanDays: -1,
		PackageType:   "container",
		Tools:         []string{"Trivy", "Grype"},
		Reason:        "won't_fix",
		Comment:       "Bulk reset: issues will reappear if they persist.",
		State:         "open",
		SyncDryRun:    true,
		ReportOut:     "social_sync_report.json",
	}
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigFileName+"."+DefaultConfigFileType), nil
}

// EnsureConfigFile creates the config file with defaults if it doesn't exist
func EnsureConfigFile() error {
	path, err := GetConfigFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	return DefaultConfig().SaveTo(path)
}

// LoadFrom loads configuration from a file
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveTo saves configuration to a file with secure permissions
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// 0600: the file may hold a token
	return os.WriteFile(path, data, 0600)
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	path, err := GetConfigFilePath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// Clone returns a deep copy of the config
func (c *Config) Clone() *Config {
	clone := *c
	clone.Tools = cloneStrings(c.Tools)
	clone.Allowlist = cloneStrings(c.Allowlist)
	clone.Blocklist = cloneStrings(c.Blocklist)
	return &clone
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
