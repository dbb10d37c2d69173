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
	releaseKeep          int
	releaseOlderThanDays int
	releaseDeleteTags    bool
)

var releasesCmd = &cobra.Command{
	Use:     "releases",
	Aliases: []string{"clean"},
	Short:   "Filter and remove GitHub Releases",
	Long: `Delete the releases of a repository, optionally keeping the most recent
ones or only removing releases older than a number of days. Both filters
must hold for a release to be removed.

Examples:
  forgeops releases --repository owner/repo --older-than-days 30
  forgeops releases --repository owner/repo --keep 10
  forgeops releases --repository owner/repo --keep 5 --delete-tags --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReleases(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	releasesCmd.Flags().StringVarP(&repository, "repository", "r", "", "GitHub repository (format: owner/repo, default: $GH_OWNER/$GH_REPO)")
	releasesCmd.Flags().IntVarP(&releaseKeep, "keep", "c", -1, "Keep the N most recent releases")
	releasesCmd.Flags().IntVarP(&releaseOlderThanDays, "older-than-days", "d", -1, "Only delete releases created more than N days ago")
	releasesCmd.Flags().BoolVar(&releaseDeleteTags, "delete-tags", false, "Also delete the git tag of each removed release")

	rootCmd.AddCommand(releasesCmd)
}

func releaseFilter(now time.Time) cleanup.Filter {
	filter := cleanup.Filter{CreatedBefore: cleanup.OlderThanDays(releaseOlderThanDays, now)}
	if releaseKeep > 0 {
		filter.Keep = releaseKeep
	}
	return filter
}

func runReleases(ctx context.Context, out io.Writer) error {
	ref, err := resolveRepository()
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	if err := preflight(ctx, engine, auth.OpReleases, auth.PreflightOptions{Repository: ref.String()}); err != nil {
		return err
	}

	result, err := newCleanupService(engine).DeleteReleases(ctx, ref, releaseFilter(time.Now()), releaseDeleteTags)
	printResult(out, "Release cleanup for "+ref.String(), result, dryRun)
	if err != nil {
		return err
	}
	return runFailed(result)
}
