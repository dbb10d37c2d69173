// Package cleanup implements the bulk deletion and dismissal operations:
// caches, releases, packages, code-scanning analyses and alerts
package cleanup

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/sirupsen/logrus"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/github"
	"github.com/Didstopia/forgeops/internal/logging"
)

// Skip reasons reported in <op>_skip events
const (
	SkipMalformed = "malformed"
	SkipFiltered  = "filtered"
	SkipKept      = "kept"
	SkipDryRun    = "dry_run"
)

// Result counts the outcome of one operation. Every listed item is attempted
// once and lands in exactly one of Succeeded, Skipped or Failed.
type Result struct {
	Operation string `json:"operation"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// Fields returns the counts as log fields
func (r *Result) Fields() logrus.Fields {
	return logrus.Fields{
		"attempted": r.Attempted,
		"succeeded": r.Succeeded,
		"skipped":   r.Skipped,
		"failed":    r.Failed,
	}
}

// Kind describes one resource type: where to list it, how to decode an item
// and how to mutate it
type Kind struct {
	// Name prefixes every event, e.g. cache_delete
	Name string

	// Path is the list endpoint
	Path string

	// ArrayKey names the item array when the list page is an object
	ArrayKey string

	// Query is sent with every list page
	Query url.Values

	// Decode turns a raw list item into an Item
	Decode func(raw json.RawMessage) (Item, error)

	// Apply performs the mutation for one item
	Apply func(ctx context.Context, item Item) error
}

// Options configures a Service
type Options struct {
	// DryRun lists and filters but performs no mutations
	DryRun bool

	// PerPage is the list page size (1-100)
	PerPage int
}

// Service runs cleanup operations against the API
type Service struct {
	req    github.Requester
	lister *github.Lister
	log    logrus.FieldLogger
	opts   Options
}

// NewService creates a cleanup service
func NewService(req github.Requester, log logrus.FieldLogger, opts Options) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		req:    req,
		lister: github.NewLister(req, log),
		log:    log,
		opts:   opts,
	}
}

// DryRun reports whether mutations are suppressed
func (s *Service) DryRun() bool {
	return s.opts.DryRun
}

// Run lists every item of kind and applies the mutation to those that are
// valid, match the filter and are not kept. The returned error is non-nil
// only when listing fails or ctx is cancelled; the result is always filled in.
func (s *Service) Run(ctx context.Context, kind Kind, filter Filter) (*Result, error) {
	result := &Result{Operation: kind.Name}

	logging.Event(s.log, kind.Name+"_start", logrus.Fields{
		"path":    kind.Path,
		"dry_run": s.opts.DryRun,
	}, logrus.InfoLevel)

	eligible := 0
	err := s.lister.Each(ctx, kind.Path, github.ListOptions{
		PerPage:  s.opts.PerPage,
		ArrayKey: kind.ArrayKey,
		Query:    kind.Query,
	}, func(raw json.RawMessage) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Attempted++

		item, err := kind.Decode(raw)
		if err != nil || item == nil || !item.Valid() {
			result.Skipped++
			fields := logrus.Fields{"reason": SkipMalformed}
			if err != nil {
				fields["error"] = err.Error()
			}
			logging.Event(s.log, kind.Name+"_skip", fields, logrus.WarnLevel)
			return nil
		}

		id := item.ID()
		if !item.Matches(filter) {
			s.skip(kind, result, id, SkipFiltered)
			return nil
		}
		if v, ok := item.(vetoer); ok {
			if reason := v.SkipReason(); reason != "" {
				s.skip(kind, result, id, reason)
				return nil
			}
		}

		eligible++
		if eligible <= filter.Keep {
			s.skip(kind, result, id, SkipKept)
			return nil
		}

		if s.opts.DryRun {
			s.skip(kind, result, id, SkipDryRun)
			return nil
		}

		if err := kind.Apply(ctx, item); err != nil {
			result.Failed++
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logging.Event(s.log, kind.Name+"_error", logrus.Fields{
				"id":           id,
				"status":       gherrors.StatusCode(err),
				"rate_limited": gherrors.IsRateLimited(err),
				"error":        err.Error(),
			}, logrus.ErrorLevel)
			return nil
		}

		result.Succeeded++
		logging.Event(s.log, kind.Name+"_ok", logrus.Fields{"id": id}, logrus.InfoLevel)
		return nil
	})

	fields := result.Fields()
	if err != nil {
		fields["error"] = err.Error()
	}
	logging.Event(s.log, kind.Name+"_complete", fields, logrus.InfoLevel)

	return result, err
}

func (s *Service) skip(kind Kind, result *Result, id, reason string) {
	result.Skipped++
	level := logrus.DebugLevel
	if reason == SkipDryRun {
		level = logrus.InfoLevel
	}
	logging.Event(s.log, kind.Name+"_skip", logrus.Fields{
		"id":     id,
		"reason": reason,
	}, level)
}
