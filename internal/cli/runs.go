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
	runsKeep          int
	runsOlderThanDays int
)

var runsCmd = &cobra.Command{
	Use:     "runs",
	Aliases: []string{"workflow-runs", "delete-completed-runs"},
	Short:   "Delete completed GitHub Actions workflow runs",
	Long: `Delete the completed workflow runs of a repository. Queued and in-progress
runs are never touched.

Examples:
  forgeops runs --repository owner/repo
  forgeops runs --repository owner/repo --older-than-days 14
  forgeops runs --repository owner/repo --keep 20 --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflowRuns(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	runsCmd.Flags().StringVarP(&repository, "repository", "r", "", "GitHub repository (format: owner/repo, default: $GH_OWNER/$GH_REPO)")
	runsCmd.Flags().IntVarP(&runsKeep, "keep", "c", -1, "Keep the N most recent runs")
	runsCmd.Flags().IntVarP(&runsOlderThanDays, "older-than-days", "d", -1, "Only delete runs created more than N days ago")

	rootCmd.AddCommand(runsCmd)
}

func runWorkflowRuns(ctx context.Context, out io.Writer) error {
	ref, err := resolveRepository()
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	if err := preflight(ctx, engine, auth.OpWorkflowRuns, auth.PreflightOptions{Repository: ref.String()}); err != nil {
		return err
	}

	filter := cleanup.Filter{CreatedBefore: cleanup.OlderThanDays(runsOlderThanDays, time.Now())}
	if runsKeep > 0 {
		filter.Keep = runsKeep
	}

	result, err := newCleanupService(engine).DeleteWorkflowRuns(ctx, ref, filter)
	printResult(out, "Workflow run cleanup for "+ref.String(), result, dryRun)
	if err != nil {
		return err
	}
	return runFailed(result)
}
