package cli

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Didstopia/forgeops/internal/auth"
	"github.com/Didstopia/forgeops/internal/cleanup"
	"github.com/Didstopia/forgeops/internal/logging"
	"github.com/Didstopia/forgeops/pkg/util"
)

var (
	vulnTools   []string
	vulnReason  string
	vulnComment string
	vulnState   string
)

var vulnsCmd = &cobra.Command{
	Use:     "vulns",
	Aliases: []string{"clear-vulns"},
	Short:   "Reset code scanning results",
	Long: `Reset the code scanning results of a repository, either by deleting
analyses or by dismissing alerts. Both act only on the tools named with
--tools (default Trivy and Grype); pass --tools "" for every tool.`,
}

var vulnsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete code scanning analyses",
	Long: `Delete the code scanning analyses uploaded by the selected tools.

Analyses the API reports as not deletable are skipped. Deleting the last
analysis of a set may require confirmation, which is given automatically.

Examples:
  forgeops vulns delete --repository owner/repo
  forgeops vulns delete --repository owner/repo --tools CodeQL --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVulnsDelete(cmd.Context(), cmd.OutOrStdout())
	},
}

var vulnsDismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss code scanning alerts",
	Long: `Dismiss the code scanning alerts raised by the selected tools.

Valid reasons: false_positive, won't_fix, used_in_tests.

Examples:
  forgeops vulns dismiss --repository owner/repo
  forgeops vulns dismiss --repository owner/repo --reason false_positive --comment "Scanner noise"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVulnsDismiss(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	vulnsCmd.PersistentFlags().StringVarP(&repository, "repository", "r", "", "GitHub repository (format: owner/repo, default: $GH_OWNER/$GH_REPO)")
	vulnsCmd.PersistentFlags().StringSliceVar(&vulnTools, "tools", cleanup.DefaultTools, "Code scanning tool names (exact match)")

	vulnsDismissCmd.Flags().StringVar(&vulnReason, "reason", cleanup.ReasonWontFix, "Dismissal reason")
	vulnsDismissCmd.Flags().StringVar(&vulnComment, "comment", cleanup.DefaultDismissComment, "Dismissal comment")
	vulnsDismissCmd.Flags().StringVar(&vulnState, "state", cleanup.DefaultAlertState, "State of the alerts to process")

	vulnsCmd.AddCommand(vulnsDeleteCmd)
	vulnsCmd.AddCommand(vulnsDismissCmd)
	rootCmd.AddCommand(vulnsCmd)
}

// vulnsSetup resolves the repository and an engine that passed preflight
func vulnsSetup(ctx context.Context, mode string) (util.ResourceRef, *cleanup.Service, error) {
	ref, err := resolveRepository()
	if err != nil {
		return ref, nil, err
	}

	engine, err := newEngine()
	if err != nil {
		return ref, nil, err
	}

	if err := preflight(ctx, engine, auth.OpClearVulns, auth.PreflightOptions{Repository: ref.String()}); err != nil {
		return ref, nil, err
	}

	logging.Event(log, "clear_vulns_start", logrus.Fields{
		"repo":        ref.String(),
		"mode":        mode,
		"dry_run":     dryRun,
		"tools_count": len(vulnTools),
		"state":       vulnState,
	}, logrus.InfoLevel)

	return ref, newCleanupService(engine), nil
}

func runVulnsDelete(ctx context.Context, out io.Writer) error {
	ref, svc, err := vulnsSetup(ctx, "delete")
	if err != nil {
		return err
	}

	result, err := svc.DeleteAnalyses(ctx, ref, cleanup.Filter{Tools: vulnTools})
	logVulnsComplete("delete", result)
	printResult(out, "Code scanning analyses for "+ref.String(), result, dryRun)
	if err != nil {
		return err
	}
	return runFailed(result)
}

func runVulnsDismiss(ctx context.Context, out io.Writer) error {
	// Reject a bad reason before touching the network
	if err := cleanup.ValidateReason(vulnReason); err != nil {
		logging.Event(log, "clear_vulns_reason_invalid", logrus.Fields{
			"reason": vulnReason,
			"valid":  cleanup.DismissReasons,
		}, logrus.ErrorLevel)
		return err
	}

	ref, svc, err := vulnsSetup(ctx, "dismiss")
	if err != nil {
		return err
	}

	result, err := svc.DismissAlerts(ctx, ref, cleanup.DismissOptions{
		Reason:  vulnReason,
		Comment: vulnComment,
		State:   vulnState,
		Filter:  cleanup.Filter{Tools: vulnTools},
	})
	logVulnsComplete("dismiss", result)
	printResult(out, "Code scanning alerts for "+ref.String(), result, dryRun)
	if err != nil {
		return err
	}
	return runFailed(result)
}

func logVulnsComplete(mode string, result *cleanup.Result) {
	if result == nil {
		return
	}
	fields := result.Fields()
	fields["mode"] = mode
	logging.Event(log, "clear_vulns_complete", fields, logrus.InfoLevel)
}
