// Package cli provides the command-line interface for forgeops
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Didstopia/forgeops/internal/config"
	"github.com/Didstopia/forgeops/internal/logging"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Global flags
var (
	verbose       bool
	dryRun        bool
	token         string
	logJSON       bool
	logLevel      string
	pageSize      int
	skipPreflight bool
)

// Global logger, rebuilt from flags before each command runs
var log = logrus.New()

// Config loader
var configLoader *config.Loader

// Root command
var rootCmd = &cobra.Command{
	Use:   "forgeops",
	Short: "Bulk maintenance for GitHub repositories and accounts",
	Long: `forgeops performs bulk maintenance against the GitHub API: it deletes
Actions caches, releases, packages and code-scanning analyses, dismisses
code-scanning alerts and reconciles your followers and following lists.

Every destructive command honors --dry-run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Inject config file and environment values
		configLoader.InjectToCommand(cmd)

		// Re-read flags after injection
		verbose, _ = cmd.Flags().GetBool("verbose")
		dryRun, _ = cmd.Flags().GetBool("dry-run")
		token, _ = cmd.Flags().GetString("token")
		logJSON, _ = cmd.Flags().GetBool("log-json")
		logLevel, _ = cmd.Flags().GetString("log-level")
		pageSize, _ = cmd.Flags().GetInt("page-size")

		return setupLogger()
	},
}

func init() {
	// Initialize config loader
	configLoader = config.NewLoader()
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug log level)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "D", false, "Simulate running without making changes")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "GitHub API token (default: $GH_TOKEN, then $GITHUB_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit structured JSON log events")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 100, "Items per API page (1..100)")
	rootCmd.PersistentFlags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip the token scope check")
}

func initConfig() {
	if err := configLoader.Initialize(); err != nil {
		// Config initialization failure is not fatal; the environment still applies
		log.Debugf("Config initialization: %v", err)
		if err := configLoader.BindEnvironment(); err != nil {
			log.Debugf("Environment binding: %v", err)
		}
	}

	// Bind flags to viper
	viper := configLoader.Viper()
	for _, name := range []string{"verbose", "dry-run", "token", "log-json", "log-level", "page-size"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	viper.SetDefault("verbose", false)
	viper.SetDefault("dry-run", false)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("page-size", 100)
	viper.SetDefault("sync-dry-run", true)
}

// setupLogger replaces the global logger according to the logging flags
func setupLogger() error {
	level := logLevel
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(logging.Options{Level: level, JSON: logJSON})
	if err != nil {
		return wrapConfigError("log-level", err)
	}
	log = logger
	return nil
}

// Execute runs the root command and exits with a code matching the outcome
func Execute() {
	// Cancel on SIGINT/SIGTERM; a pending rate-limit wait is interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.SetContext(ctx)

	// No arguments on a terminal opens the interactive menu
	if len(os.Args) == 1 && IsInteractive() {
		rootCmd.SetArgs([]string{"interactive"})
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitCode(err))
	}
}

// GetLogger returns the global logger
func GetLogger() *logrus.Logger {
	return log
}

// GetDryRun returns the dry-run flag
func GetDryRun() bool {
	return dryRun
}
