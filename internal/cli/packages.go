package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Didstopia/forgeops/internal/auth"
	"github.com/Didstopia/forgeops/internal/cleanup"
	gherrors "github.com/Didstopia/forgeops/internal/errors"
)

var (
	packageOrg           string
	packageUser          string
	packageType          string
	packageNames         []string
	packageVersions      bool
	packageList          bool
	packageKeep          int
	packageOlderThanDays int
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List or delete GitHub Packages",
	Long: `List or delete the packages of an organization or user.

Without --versions whole packages are deleted (optionally only those named
with --name). With --versions the versions of a single package are deleted.
When neither --org nor --user is given, $GH_OWNER is used as organization.

Supported types: container, npm, maven, rubygems, nuget.

Examples:
  forgeops packages --org acme --list
  forgeops packages --org acme --type npm --name old-lib --dry-run
  forgeops packages --user octocat --name app --versions --keep 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPackages(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	packagesCmd.Flags().StringVarP(&packageOrg, "org", "o", "", "Organization owning the packages")
	packagesCmd.Flags().StringVarP(&packageUser, "user", "u", "", "User owning the packages")
	packagesCmd.Flags().StringVar(&packageType, "type", cleanup.DefaultPackageType, "Package type")
	packagesCmd.Flags().StringSliceVarP(&packageNames, "name", "n", nil, "Package name (repeatable; exactly one with --versions)")
	packagesCmd.Flags().BoolVar(&packageVersions, "versions", false, "Delete versions of the named package instead of whole packages")
	packagesCmd.Flags().BoolVarP(&packageList, "list", "l", false, "List packages without deleting anything")
	packagesCmd.Flags().IntVarP(&packageKeep, "keep", "c", -1, "Keep the N most recent items")
	packagesCmd.Flags().IntVarP(&packageOlderThanDays, "older-than-days", "d", -1, "Only delete items created more than N days ago")

	packagesCmd.MarkFlagsMutuallyExclusive("org", "user")
	packagesCmd.MarkFlagsMutuallyExclusive("list", "versions")

	rootCmd.AddCommand(packagesCmd)
}

// resolvePackageScope picks the package owner from the flags or $GH_OWNER
func resolvePackageScope() (cleanup.PackageScope, error) {
	switch {
	case packageOrg != "":
		return cleanup.NewPackageScope(cleanup.ScopeOrg, packageOrg)
	case packageUser != "":
		return cleanup.NewPackageScope(cleanup.ScopeUser, packageUser)
	}

	if owner := strings.TrimSpace(configLoader.GetString("owner")); owner != "" {
		log.WithField("org", owner).Debug("Using GH_OWNER as package organization")
		return cleanup.NewPackageScope(cleanup.ScopeOrg, owner)
	}

	return cleanup.PackageScope{}, gherrors.NewConfigError("scope", "either --org or --user must be specified")
}

func scopePath(scope cleanup.PackageScope) string {
	if scope.Kind == cleanup.ScopeUser {
		return "users/" + scope.Name
	}
	return "orgs/" + scope.Name
}

func runPackages(ctx context.Context, out io.Writer) error {
	scope, err := resolvePackageScope()
	if err != nil {
		return err
	}

	if packageVersions && len(packageNames) != 1 {
		return gherrors.NewConfigError("name", "--versions requires exactly one --name")
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	svc := newCleanupService(engine)
	pkgType := svc.NormalizePackageType(packageType)

	op := auth.OpPackagesDelete
	if packageList {
		op = auth.OpPackagesList
	}
	if err := preflight(ctx, engine, op, auth.PreflightOptions{
		PackageScope: scopePath(scope),
		PackageType:  pkgType,
	}); err != nil {
		return err
	}

	if packageList {
		return listPackages(ctx, out, svc, scope, pkgType)
	}

	filter := cleanup.Filter{CreatedBefore: cleanup.OlderThanDays(packageOlderThanDays, time.Now())}
	if packageKeep > 0 {
		filter.Keep = packageKeep
	}

	var result *cleanup.Result
	if packageVersions {
		result, err = svc.DeletePackageVersions(ctx, scope, pkgType, packageNames[0], filter)
		printResult(out, fmt.Sprintf("Version cleanup for %s package %s", pkgType, packageNames[0]), result, dryRun)
	} else {
		filter.Names = packageNames
		result, err = svc.DeletePackages(ctx, scope, pkgType, filter)
		printResult(out, fmt.Sprintf("Package cleanup for %s %s", scope.Kind, scope.Name), result, dryRun)
	}
	if err != nil {
		return err
	}
	return runFailed(result)
}

func listPackages(ctx context.Context, out io.Writer, svc *cleanup.Service, scope cleanup.PackageScope, pkgType string) error {
	packages, err := svc.ListPackages(ctx, scope, pkgType)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(out, "\n%s\n", bold(fmt.Sprintf("%d %s package(s) for %s %s", len(packages), pkgType, scope.Kind, scope.Name)))
	for _, p := range packages {
		visibility := p.GetVisibility()
		if visibility == "" {
			visibility = "unknown"
		}
		fmt.Fprintf(out, "  %s %s\n", p.GetName(), dim("("+visibility+")"))
	}
	return nil
}
