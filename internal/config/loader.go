package config

import (
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Didstopia/forgeops/pkg/util"
)

// EnvBindings maps config keys to the environment variables that set them,
// in order of precedence. The token is resolved by the auth package.
var EnvBindings = map[string][]string{
	"owner":        {"GH_OWNER"},
	"repo":         {"GH_REPO"},
	"sync-dry-run": {"SYNC_DRY_RUN"},
	"allowlist":    {"SYNC_ALLOWLIST"},
	"blocklist":    {"SYNC_BLOCKLIST"},
	"page-size":    {"SYNC_PAGE_SIZE"},
	"log-json":     {"LOG_JSON"},
	"log-level":    {"LOG_LEVEL"},
}

// Loader manages configuration loading from multiple sources
type Loader struct {
	viper *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		viper: viper.New(),
	}
}

// Initialize sets up the configuration loader
func (l *Loader) Initialize() error {
	// Ensure default config file exists
	if err := EnsureConfigFile(); err != nil {
		return err
	}

	home, err := homedir.Dir()
	if err != nil {
		return err
	}
	l.viper.AddConfigPath(".")
	l.viper.AddConfigPath(home)

	l.viper.SetConfigName(DefaultConfigFileName)
	l.viper.SetConfigType(DefaultConfigFileType)

	if err := l.viper.ReadInConfig(); err != nil {
		return err
	}

	return l.BindEnvironment()
}

// BindEnvironment enables environment variable overrides
func (l *Loader) BindEnvironment() error {
	for key, envs := range EnvBindings {
		args := append([]string{key}, envs...)
		if err := l.viper.BindEnv(args...); err != nil {
			return err
		}
	}

	l.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	l.viper.AutomaticEnv()

	return nil
}

// BindFlag binds a flag to a viper key
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	return l.viper.BindPFlag(key, flag)
}

// SetDefault sets a default value for a key
func (l *Loader) SetDefault(key string, value interface{}) {
	l.viper.SetDefault(key, value)
}

// GetString returns a string value
func (l *Loader) GetString(key string) string {
	return l.viper.GetString(key)
}

// GetBool returns a bool value
func (l *Loader) GetBool(key string) bool {
	return l.viper.GetBool(key)
}

// GetInt returns an int value
func (l *Loader) GetInt(key string) int {
	return l.viper.GetInt(key)
}

// GetList returns a list value. Strings, as set from the environment, are
// split on commas.
func (l *Loader) GetList(key string) []string {
	if s, ok := l.viper.Get(key).(string); ok {
		return util.SplitList(s)
	}
	return l.viper.GetStringSlice(key)
}

// IsSet checks if a key has been set
func (l *Loader) IsSet(key string) bool {
	return l.viper.IsSet(key)
}

// noInject lists flags whose config value is read explicitly instead
var noInject = map[string]struct{}{
	"token": {},
}

// InjectToCommand injects viper config values into command flags
// that weren't explicitly set via command line
func (l *Loader) InjectToCommand(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if _, skip := noInject[f.Name]; skip {
			return
		}
		if f.Changed || !l.viper.IsSet(f.Name) {
			return
		}
		value := l.viper.GetString(f.Name)
		current := f.Value.String()
		if slice, ok := f.Value.(pflag.SliceValue); ok {
			value = strings.Join(l.GetList(f.Name), ",")
			current = strings.Join(slice.GetSlice(), ",")
		}
		// Setting marks the flag changed, which trips flag group checks
		if value == current {
			return
		}
		_ = cmd.Flags().Set(f.Name, value)
	})
}

// Viper returns the underlying viper instance
func (l *Loader) Viper() *viper.Viper {
	return l.viper
}
