package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Didstopia/forgeops/internal/cleanup"
	"github.com/Didstopia/forgeops/pkg/util"
)

// Menu entries of the interactive mode
const (
	actionCache          = "cache"
	actionRuns           = "runs"
	actionReleases       = "releases"
	actionPackagesList   = "packages-list"
	actionPackagesDelete = "packages-delete"
	actionVulnsDelete    = "vulns-delete"
	actionVulnsDismiss   = "vulns-dismiss"
	actionSocialSync     = "social-sync"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Pick an operation from a menu",
	Long: `Launch a menu that asks for the operation and its parameters, then runs
it. Simulation is preselected.

This command is equivalent to running 'forgeops' with no arguments in an
interactive terminal.`,
	Aliases: []string{"menu", "ui"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

// interactiveChoices are the answers collected by the menu
type interactiveChoices struct {
	Action     string
	Repository string
	ScopeKind  string
	ScopeName  string
	PkgType    string
	PkgName    string
	Reason     string
	DryRun     bool
}

func runInteractive(ctx context.Context, out io.Writer) error {
	if !IsInteractive() {
		fmt.Fprintln(out, "forgeops is running in a non-interactive environment.")
		fmt.Fprintln(out, "Run 'forgeops --help' to see the available commands.")
		return nil
	}

	styles := DefaultStyles()
	fmt.Fprintln(out, styles.Header.Render(
		styles.HeaderTitle.Render("forgeops")+" "+styles.Muted.Render(Version)))

	choices := interactiveChoices{DryRun: true, PkgType: cleanup.DefaultPackageType, Reason: cleanup.ReasonWontFix}
	if ref, err := resolveRepository(); err == nil {
		choices.Repository = ref.String()
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What do you want to do?").
			Options(
				huh.NewOption("Delete Actions caches", actionCache),
				huh.NewOption("Delete completed workflow runs", actionRuns),
				huh.NewOption("Delete releases", actionReleases),
				huh.NewOption("List packages", actionPackagesList),
				huh.NewOption("Delete packages", actionPackagesDelete),
				huh.NewOption("Delete code scanning analyses", actionVulnsDelete),
				huh.NewOption("Dismiss code scanning alerts", actionVulnsDismiss),
				huh.NewOption("Reconcile followers and following", actionSocialSync),
			).
			Value(&choices.Action),
	)).WithTheme(huh.ThemeCharm()).RunWithContext(ctx); err != nil {
		return err
	}

	if err := askDetails(ctx, &choices); err != nil {
		return err
	}

	if !choices.DryRun && choices.Action != actionPackagesList {
		fmt.Fprintln(out, styles.Warning.Render("Changes will be applied to GitHub"))
	}

	// The action writes into a buffer while the spinner owns the terminal
	var buf bytes.Buffer
	runErr := spinner.New().
		Title("Running " + choices.Action + "...").
		Context(ctx).
		ActionWithErr(func(ctx context.Context) error {
			return applyChoices(ctx, &buf, choices)
		}).
		Run()

	fmt.Fprint(out, buf.String())
	if runErr != nil {
		fmt.Fprintln(out, styles.Box.Render(styles.Error.Render("✗ "+runErr.Error())))
		return runErr
	}
	fmt.Fprintln(out, styles.Box.Render(styles.Success.Render("✓ Done")))
	return nil
}

// askDetails asks the parameters of the chosen action
func askDetails(ctx context.Context, c *interactiveChoices) error {
	var fields []huh.Field

	switch c.Action {
	case actionCache, actionRuns, actionReleases, actionVulnsDelete, actionVulnsDismiss:
		fields = append(fields, huh.NewInput().
			Title("Repository (owner/repo)").
			Value(&c.Repository).
			Validate(func(s string) error {
				_, err := util.ParseRepository(s)
				return err
			}))

	case actionPackagesList, actionPackagesDelete:
		title := cases.Title(language.English)
		options := make([]huh.Option[string], 0, len(cleanup.PackageTypes))
		for _, t := range cleanup.PackageTypes {
			options = append(options, huh.NewOption(title.String(t), t))
		}
		fields = append(fields,
			huh.NewSelect[string]().
				Title("Packages owned by").
				Options(
					huh.NewOption("Organization", string(cleanup.ScopeOrg)),
					huh.NewOption("User", string(cleanup.ScopeUser)),
				).
				Value(&c.ScopeKind),
			huh.NewInput().
				Title("Organization or user name").
				Value(&c.ScopeName).
				Validate(func(s string) error {
					return util.ValidateAccountName("scope", s)
				}),
			huh.NewSelect[string]().
				Title("Package type").
				Options(options...).
				Value(&c.PkgType),
		)
		if c.Action == actionPackagesDelete {
			fields = append(fields, huh.NewInput().
				Title("Package name (empty for all packages)").
				Value(&c.PkgName))
		}
	}

	if c.Action == actionVulnsDismiss {
		options := make([]huh.Option[string], 0, len(cleanup.DismissReasons))
		for _, r := range cleanup.DismissReasons {
			options = append(options, huh.NewOption(r, r))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Dismissal reason").
			Options(options...).
			Value(&c.Reason))
	}

	if c.Action != actionPackagesList {
		fields = append(fields, huh.NewConfirm().
			Title("Simulate only (dry run)?").
			Affirmative("Yes, simulate").
			Negative("No, apply changes").
			Value(&c.DryRun))
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCharm()).RunWithContext(ctx)
}

// applyChoices maps the answers onto the command flags and runs the action
func applyChoices(ctx context.Context, out io.Writer, c interactiveChoices) error {
	repository = strings.TrimSpace(c.Repository)
	dryRun = c.DryRun

	switch c.Action {
	case actionCache:
		return runCache(ctx, out)
	case actionRuns:
		return runWorkflowRuns(ctx, out)
	case actionReleases:
		return runReleases(ctx, out)
	case actionPackagesList, actionPackagesDelete:
		packageOrg, packageUser = "", ""
		if cleanup.ScopeKind(c.ScopeKind) == cleanup.ScopeUser {
			packageUser = c.ScopeName
		} else {
			packageOrg = c.ScopeName
		}
		packageType = c.PkgType
		packageList = c.Action == actionPackagesList
		packageNames = nil
		if name := strings.TrimSpace(c.PkgName); name != "" {
			packageNames = []string{name}
		}
		return runPackages(ctx, out)
	case actionVulnsDelete:
		return runVulnsDelete(ctx, out)
	case actionVulnsDismiss:
		vulnReason = c.Reason
		return runVulnsDismiss(ctx, out)
	case actionSocialSync:
		socialApply = !c.DryRun
		return runSocialSync(ctx, out)
	default:
		return fmt.Errorf("unknown action %q", c.Action)
	}
}
