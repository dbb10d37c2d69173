package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/logging"
	"github.com/Didstopia/forgeops/pkg/util"
)

// Dismissal reasons accepted by the code-scanning API
const (
	ReasonFalsePositive = "false_positive"
	ReasonWontFix       = "won't_fix"
	ReasonUsedInTests   = "used_in_tests"
)

// DismissReasons lists every accepted dismissal reason
var DismissReasons = []string{ReasonFalsePositive, ReasonWontFix, ReasonUsedInTests}

// Dismissal defaults
const (
	DefaultDismissComment = "Bulk reset: issues will reappear if they persist."
	DefaultAlertState     = "open"
)

// DismissOptions configures DismissAlerts
type DismissOptions struct {
	Reason  string
	Comment string
	State   string
	Filter  Filter
}

// dismissBody is the PATCH payload sent for each alert
type dismissBody struct {
	State            string `json:"state"`
	Dismissed        bool   `json:"dismissed"`
	DismissedReason  string `json:"dismissed_reason"`
	DismissedComment string `json:"dismissed_comment,omitempty"`
}

// ValidateReason checks a dismissal reason
func ValidateReason(reason string) error {
	if contains(DismissReasons, reason) {
		return nil
	}
	return gherrors.NewConfigError("reason", fmt.Sprintf("%v %q (expected one of: %s)",
		gherrors.ErrInvalidReason, reason, strings.Join(DismissReasons, ", ")))
}

// AlertKind describes the code-scanning alerts of a repository in the given state
func (s *Service) AlertKind(ref util.ResourceRef, opts DismissOptions) Kind {
	base := fmt.Sprintf("repos/%s/%s/code-scanning/alerts", ref.Owner, ref.Repo)
	state := opts.State
	if state == "" {
		state = DefaultAlertState
	}
	body := dismissBody{
		State:            "dismissed",
		Dismissed:        true,
		DismissedReason:  opts.Reason,
		DismissedComment: opts.Comment,
	}

	return Kind{
		Name:   "alert_dismiss",
		Path:   base,
		Query:  url.Values{"state": []string{state}},
		Decode: decodeAlert,
		Apply: func(ctx context.Context, item Item) error {
			if alert, ok := item.(Alert); ok {
				logging.Event(s.log, "alert_dismiss_attempt", logrus.Fields{
					"id":   item.ID(),
					"rule": alert.RuleID(),
					"tool": alert.Tool.GetName(),
				}, logrus.DebugLevel)
			}
			_, err := s.req.Execute(ctx, http.MethodPatch, base+"/"+item.ID(), body)
			return err
		},
	}
}

// DismissAlerts dismisses every matching alert. An invalid reason is rejected
// before any request is made.
func (s *Service) DismissAlerts(ctx context.Context, ref util.ResourceRef, opts DismissOptions) (*Result, error) {
	if err := ValidateReason(opts.Reason); err != nil {
		return &Result{Operation: "alert_dismiss"}, err
	}
	return s.Run(ctx, s.AlertKind(ref, opts), opts.Filter)
}
