package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Didstopia/forgeops/internal/auth"
	"github.com/Didstopia/forgeops/internal/github"
	"github.com/Didstopia/forgeops/internal/social"
)

var (
	socialAllowlist []string
	socialBlocklist []string
	socialReportOut string
	socialApply     bool
	socialNoReport  bool
	socialSchedule  string
)

var socialSyncCmd = &cobra.Command{
	Use:   "social-sync",
	Short: "Reconcile followers and following",
	Long: `Reconcile the accounts you follow with the accounts following you.

Accounts you follow are unfollowed unless allowlisted; when a blocklist is
given, only blocklisted accounts are unfollowed. Followers and allowlisted
accounts you do not follow yet are followed, except blocklisted ones.

The sync is a dry run unless --apply is given or SYNC_DRY_RUN=false is set.
A JSON report is written after every run (YAML when the path ends in .yaml).

Examples:
  forgeops social-sync
  forgeops social-sync --allowlist alice,bob --apply
  forgeops social-sync --blocklist spammer --report-out report.yaml
  forgeops social-sync --apply --schedule "@every 6h"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		return runScheduled(cmd.Context(), socialSchedule, "social-sync", func(ctx context.Context) error {
			return runSocialSync(ctx, out)
		})
	},
}

func init() {
	socialSyncCmd.Flags().StringSliceVar(&socialAllowlist, "allowlist", nil, "Accounts never unfollowed and always followed (CSV, default: $SYNC_ALLOWLIST)")
	socialSyncCmd.Flags().StringSliceVar(&socialBlocklist, "blocklist", nil, "Accounts never followed (CSV, default: $SYNC_BLOCKLIST)")
	socialSyncCmd.Flags().StringVar(&socialReportOut, "report-out", social.DefaultReportPath, "Path of the sync report")
	socialSyncCmd.Flags().BoolVar(&socialApply, "apply", false, "Apply the changes (overrides SYNC_DRY_RUN)")
	socialSyncCmd.Flags().BoolVar(&socialNoReport, "no-report", false, "Do not write a report file")
	socialSyncCmd.Flags().StringVar(&socialSchedule, "schedule", "", "Cron schedule to repeat the sync on (e.g. \"@every 6h\")")

	rootCmd.AddCommand(socialSyncCmd)
}

// socialDryRun decides whether the sync only simulates: --dry-run always
// wins, --apply turns simulation off, otherwise sync-dry-run (default true)
func socialDryRun() bool {
	if dryRun {
		return true
	}
	if socialApply {
		return false
	}
	return configLoader.GetBool("sync-dry-run")
}

func runSocialSync(ctx context.Context, out io.Writer) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	if err := preflight(ctx, engine, auth.OpSocialSync, auth.PreflightOptions{}); err != nil {
		return err
	}

	opts := social.SyncOptions{
		DryRun:    socialDryRun(),
		Allowlist: socialAllowlist,
		Blocklist: socialBlocklist,
	}

	svc := social.NewService(engine, log, github.ClampPerPage(pageSize))
	report, syncErr := svc.Sync(ctx, opts)

	if report != nil && !socialNoReport {
		if err := social.WriteReport(socialReportOut, report, log); err != nil {
			log.WithError(err).Error("Failed to write social sync report")
			if syncErr == nil {
				syncErr = err
			}
		}
	}

	printSocialReport(out, report)
	if syncErr != nil {
		return syncErr
	}
	return runFailed(&report.Result)
}

func printSocialReport(out io.Writer, report *social.Report) {
	if report == nil {
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	title := "Social sync"
	if report.DryRun {
		title += yellow(" (dry run)")
	}
	fmt.Fprintf(out, "\n%s\n", bold(title))
	fmt.Fprintf(out, "  Followers: %d  Following: %d\n", report.FollowersCount, report.FollowingCount)
	fmt.Fprintf(out, "  To follow:   %s\n", listOrDash(report.ToFollow))
	fmt.Fprintf(out, "  To unfollow: %s\n", listOrDash(report.ToUnfollow))
	fmt.Fprintf(out, "  Followed:    %s\n", green(len(report.Followed)))
	fmt.Fprintf(out, "  Unfollowed:  %s\n", green(len(report.Unfollowed)))
	if report.Result.Failed > 0 {
		fmt.Fprintf(out, "  Failed:      %s\n", red(report.Result.Failed))
	}
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
