package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Didstopia/forgeops/internal/auth"
)

// authCmd is the parent command for auth subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Inspect GitHub authentication",
	Long:  `Inspect the GitHub token forgeops will use and the scopes it carries.`,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "View authentication status",
	Long: `Display the authenticated user, where the token came from and which
operations its scopes allow.

Examples:
  forgeops auth status
  GH_TOKEN=ghp_xxx forgeops auth status`,
	RunE: runAuthStatus,
}

func init() {
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	result := auth.GetToken(token, configLoader.GetString("token"))
	if !result.Found() {
		fmt.Fprintf(out, "%s No GitHub token found\n\n", red("✗"))
		fmt.Fprintln(out, "Set GH_TOKEN or GITHUB_TOKEN, or pass --token.")
		return nil
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	// Check only the token itself; scope coverage is reported below
	user, err := auth.Preflight(ctx, engine, "", auth.PreflightOptions{}, log)
	if err != nil {
		fmt.Fprintf(out, "%s Token is invalid or expired\n", red("✗"))
		fmt.Fprintf(out, "  Token: %s\n", auth.MaskToken(result.Token))
		fmt.Fprintf(out, "  Source: %s\n", auth.FormatTokenSource(result.Source))
		return err
	}

	fmt.Fprintf(out, "%s Logged in to github.com as %s\n", green("✓"), user.Login)
	fmt.Fprintf(out, "  Token: %s\n", auth.MaskToken(result.Token))
	fmt.Fprintf(out, "  Token source: %s\n", auth.FormatTokenSource(result.Source))
	if user.Name != "" {
		fmt.Fprintf(out, "  Name: %s\n", user.Name)
	}

	printScopeCoverage(out, user.Scopes)
	return nil
}

// printScopeCoverage lists which operations the token's scopes allow
func printScopeCoverage(out io.Writer, scopes []string) {
	if len(scopes) == 0 {
		fmt.Fprintln(out, "  Scopes: not reported (fine-grained or Actions token)")
		return
	}

	fmt.Fprintf(out, "  Scopes: %s\n", strings.Join(scopes, ", "))

	have := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		have[s] = true
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, op := range []auth.Operation{
		auth.OpCache, auth.OpWorkflowRuns, auth.OpReleases, auth.OpPackagesList,
		auth.OpPackagesDelete, auth.OpClearVulns, auth.OpSocialSync,
	} {
		mark := green("✓")
		for _, s := range auth.RequiredScopes[op] {
			if !have[s] {
				mark = red("✗")
			}
		}
		fmt.Fprintf(out, "    %s %s\n", mark, op)
	}
}
