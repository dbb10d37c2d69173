package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"

	"github.com/Didstopia/forgeops/internal/cleanup"
	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/github"
	"github.com/Didstopia/forgeops/internal/logging"
)

// Skip reasons recorded in the report
const (
	SkipDryRunFollow   = "dry_run_follow"
	SkipDryRunUnfollow = "dry_run_unfollow"
)

// SyncOptions configures a sync run
type SyncOptions struct {
	DryRun    bool
	Allowlist []string
	Blocklist []string
}

// Service reads and changes the authenticated user's follow graph
type Service struct {
	req     github.Requester
	lister  *github.Lister
	log     logrus.FieldLogger
	perPage int
	now     func() time.Time
}

// NewService creates a social service
func NewService(req github.Requester, log logrus.FieldLogger, perPage int) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		req:     req,
		lister:  github.NewLister(req, log),
		log:     log,
		perPage: perPage,
		now:     time.Now,
	}
}

// Followers returns the logins following the authenticated user
func (s *Service) Followers(ctx context.Context) ([]string, error) {
	return s.logins(ctx, "user/followers")
}

// Following returns the logins the authenticated user follows
func (s *Service) Following(ctx context.Context) ([]string, error) {
	return s.logins(ctx, "user/following")
}

func (s *Service) logins(ctx context.Context, path string) ([]string, error) {
	var logins []string
	err := s.lister.Each(ctx, path, github.ListOptions{PerPage: s.perPage}, func(raw json.RawMessage) error {
		var user gh.User
		if err := json.Unmarshal(raw, &user); err != nil || user.GetLogin() == "" {
			logging.Event(s.log, "social_list_skip", logrus.Fields{
				"path":   path,
				"reason": cleanup.SkipMalformed,
			}, logrus.WarnLevel)
			return nil
		}
		logins = append(logins, user.GetLogin())
		return nil
	})
	return logins, err
}

// Follow follows login; already following counts as success
func (s *Service) Follow(ctx context.Context, login string) error {
	return s.change(ctx, http.MethodPut, login)
}

// Unfollow unfollows login
func (s *Service) Unfollow(ctx context.Context, login string) error {
	return s.change(ctx, http.MethodDelete, login)
}

func (s *Service) change(ctx context.Context, method, login string) error {
	resp, err := s.req.Execute(ctx, method, "user/following/"+url.PathEscape(login), nil)
	if resp != nil && (resp.Success() || resp.StatusCode == http.StatusNotModified) {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("unexpected response for %s", login)
	}
	return err
}

// Sync lists both sides of the follow graph, reconciles them against the
// policy and applies the diff unless DryRun is set. The report is returned
// even when the run stops early.
func (s *Service) Sync(ctx context.Context, opts SyncOptions) (*Report, error) {
	report := newReport(s.now(), opts)

	logging.Event(s.log, "social_sync_start", logrus.Fields{
		"dry_run":   opts.DryRun,
		"allowlist": len(report.Allowlist),
		"blocklist": len(report.Blocklist),
	}, logrus.InfoLevel)

	err := s.sync(ctx, opts, report)

	report.CompletedAt = s.now()
	fields := logrus.Fields{
		"followers_count": report.FollowersCount,
		"following_count": report.FollowingCount,
		"to_follow":       len(report.ToFollow),
		"to_unfollow":     len(report.ToUnfollow),
		"followed":        len(report.Followed),
		"unfollowed":      len(report.Unfollowed),
		"skipped":         len(report.Skipped),
		"dry_run":         report.DryRun,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logging.Event(s.log, "social_sync_complete", fields, logrus.InfoLevel)

	return report, err
}

func (s *Service) sync(ctx context.Context, opts SyncOptions, report *Report) error {
	followers, err := s.Followers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list followers: %w", err)
	}
	following, err := s.Following(ctx)
	if err != nil {
		return fmt.Errorf("failed to list following: %w", err)
	}
	report.FollowersCount = len(followers)
	report.FollowingCount = len(following)

	diff := Reconcile(following, followers, report.Allowlist, report.Blocklist)
	report.ToFollow = diff.ToFollow
	report.ToUnfollow = diff.ToUnfollow

	steps := []struct {
		logins  []string
		event   string
		dryRun  string
		apply   func(context.Context, string) error
		applied *[]string
	}{
		{diff.ToFollow, "follow", SkipDryRunFollow, s.Follow, &report.Followed},
		{diff.ToUnfollow, "unfollow", SkipDryRunUnfollow, s.Unfollow, &report.Unfollowed},
	}

	for _, step := range steps {
		for _, login := range step.logins {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Result.Attempted++

			if opts.DryRun {
				report.skip(login, step.dryRun)
				continue
			}

			if err := step.apply(ctx, login); err != nil {
				report.Result.Failed++
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				report.Skipped[login] = errorReason(err)
				logging.Event(s.log, step.event+"_error", logrus.Fields{
					"login":  login,
					"status": gherrors.StatusCode(err),
					"error":  err.Error(),
				}, logrus.ErrorLevel)
				continue
			}

			*step.applied = append(*step.applied, login)
			report.Result.Succeeded++
			logging.Event(s.log, step.event+"_ok", logrus.Fields{"login": login}, logrus.InfoLevel)
		}
	}

	return nil
}

func errorReason(err error) string {
	if status := gherrors.StatusCode(err); status != 0 {
		return fmt.Sprintf("error:%d", status)
	}
	return "error:" + err.Error()
}
