package cli

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ciEnvVars mark non-interactive CI environments
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"TRAVIS",
	"CIRCLECI",
	"JENKINS_URL",
	"BUILDKITE",
	"DRONE",
	"TEAMCITY_VERSION",
	"TF_BUILD",           // Azure Pipelines
	"CODEBUILD_BUILD_ID", // AWS CodeBuild
}

// IsInteractive returns true if the current terminal is interactive
// (not a pipe, not in CI environment)
func IsInteractive() bool {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return false
	}
	return !inCI()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func inCI() bool {
	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}
	return false
}
