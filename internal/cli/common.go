package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/Didstopia/forgeops/internal/auth"
	"github.com/Didstopia/forgeops/internal/cleanup"
	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/github"
	"github.com/Didstopia/forgeops/internal/schedule"
	"github.com/Didstopia/forgeops/pkg/util"
)

// repository is the shared --repository flag of the repository commands
var repository string

// newEngine builds a request engine from the resolved token
func newEngine() (*github.Engine, error) {
	result := auth.GetToken(token, configLoader.GetString("token"))
	if !result.Found() {
		return nil, gherrors.NewConfigError("token", gherrors.ErrMissingToken.Error())
	}

	log.WithField("source", string(result.Source)).Debug("Resolved GitHub token")

	return github.NewEngine(result.Token,
		github.WithLogger(log),
		github.WithUserAgent("forgeops/"+Version),
	)
}

// preflight checks the token scopes for op unless --skip-preflight is set
func preflight(ctx context.Context, req github.Requester, op auth.Operation, opts auth.PreflightOptions) error {
	if skipPreflight {
		log.WithField("operation", string(op)).Debug("Skipping token preflight")
		return nil
	}

	user, err := auth.Preflight(ctx, req, op, opts, log)
	if err != nil {
		return err
	}

	log.WithField("login", user.Login).Debug("Token preflight passed")
	return nil
}

// resolveRepository reads --repository, falling back to the owner and repo
// config keys (GH_OWNER / GH_REPO)
func resolveRepository() (util.ResourceRef, error) {
	if repository != "" {
		return util.ParseRepository(repository)
	}

	owner := strings.TrimSpace(configLoader.GetString("owner"))
	repo := strings.TrimSpace(configLoader.GetString("repo"))
	if owner != "" && repo != "" {
		return util.ValidateGitHubRepository(owner + "/" + repo)
	}

	return util.ResourceRef{}, gherrors.NewConfigError("repository", gherrors.ErrMissingRepository.Error())
}

// newCleanupService builds the cleanup service for the current flags
func newCleanupService(req github.Requester) *cleanup.Service {
	return cleanup.NewService(req, log, cleanup.Options{
		DryRun:  dryRun,
		PerPage: github.ClampPerPage(pageSize),
	})
}

// printResult writes a colored summary of an operation result
func printResult(out io.Writer, title string, result *cleanup.Result, simulated bool) {
	if result == nil {
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	suffix := ""
	if simulated {
		suffix = yellow(" (dry run)")
	}

	fmt.Fprintf(out, "\n%s%s\n", bold(title), suffix)
	fmt.Fprintf(out, "  Attempted: %d\n", result.Attempted)
	fmt.Fprintf(out, "  Succeeded: %s\n", green(result.Succeeded))
	fmt.Fprintf(out, "  Skipped:   %s\n", yellow(result.Skipped))
	if result.Failed > 0 {
		fmt.Fprintf(out, "  Failed:    %s\n", red(result.Failed))
	} else {
		fmt.Fprintf(out, "  Failed:    %d\n", result.Failed)
	}
}

// runFailed turns failed items into a command error so the exit code is non-zero
func runFailed(result *cleanup.Result) error {
	if result != nil && result.Failed > 0 {
		return fmt.Errorf("%s: %d of %d item(s) failed", result.Operation, result.Failed, result.Attempted)
	}
	return nil
}

// runScheduled runs job once, or on the cron spec until ctx is cancelled.
// Scheduled runs never overlap and a failed run does not stop the schedule.
func runScheduled(ctx context.Context, spec, name string, job schedule.JobFunc) error {
	if spec == "" {
		return job(ctx)
	}

	s, err := schedule.New(spec, name, job, log)
	if err != nil {
		return wrapConfigError("schedule", err)
	}
	return s.Run(ctx)
}
