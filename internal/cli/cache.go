package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Didstopia/forgeops/internal/auth"
	"github.com/Didstopia/forgeops/internal/cleanup"
)

var (
	cacheOlderThanDays int
	cacheSchedule      string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Delete GitHub Actions caches",
	Long: `Delete the GitHub Actions cache entries of a repository.

Examples:
  forgeops cache --repository owner/repo
  forgeops cache --repository owner/repo --older-than-days 7
  forgeops cache --repository owner/repo --dry-run
  forgeops cache --repository owner/repo --schedule @daily`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		return runScheduled(cmd.Context(), cacheSchedule, "cache", func(ctx context.Context) error {
			return runCache(ctx, out)
		})
	},
}

func init() {
	cacheCmd.Flags().StringVarP(&repository, "repository", "r", "", "GitHub repository (format: owner/repo, default: $GH_OWNER/$GH_REPO)")
	cacheCmd.Flags().IntVarP(&cacheOlderThanDays, "older-than-days", "d", -1, "Only delete caches created more than N days ago")
	cacheCmd.Flags().StringVar(&cacheSchedule, "schedule", "", "Cron schedule to repeat the cleanup on (e.g. \"@daily\", \"0 3 * * *\")")

	rootCmd.AddCommand(cacheCmd)
}

func runCache(ctx context.Context, out io.Writer) error {
	ref, err := resolveRepository()
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	if err := preflight(ctx, engine, auth.OpCache, auth.PreflightOptions{Repository: ref.String()}); err != nil {
		return err
	}

	filter := cleanup.Filter{CreatedBefore: cleanup.OlderThanDays(cacheOlderThanDays, time.Now())}

	result, err := newCleanupService(engine).DeleteCaches(ctx, ref, filter)
	printResult(out, "Cache cleanup for "+ref.String(), result, dryRun)
	if err != nil {
		return err
	}
	return runFailed(result)
}
