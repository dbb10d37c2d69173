package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/github"
	"github.com/Didstopia/forgeops/internal/logging"
	"github.com/Didstopia/forgeops/pkg/util"
)

// MaxFollowUpHops bounds the confirm/next-analysis chain of one deletion
const MaxFollowUpHops = 50

// DefaultTools are the scanners whose analyses are cleared by default
var DefaultTools = []string{"Trivy", "Grype"}

const confirmDeleteParam = "confirm_delete"

type deleteState int

const (
	stateDone deleteState = iota
	stateConfirmNeeded
	stateFollowUp
	stateFailed
)

// deleteStep is the classified outcome of one DELETE in the chain
type deleteStep struct {
	state deleteState
	next  string
	err   error
}

// AnalysisKind describes the code-scanning analyses of a repository
func (s *Service) AnalysisKind(ref util.ResourceRef) Kind {
	base := fmt.Sprintf("repos/%s/%s/code-scanning/analyses", ref.Owner, ref.Repo)
	return Kind{
		Name:   "analysis_delete",
		Path:   base,
		Decode: decodeAnalysis,
		Apply: func(ctx context.Context, item Item) error {
			return s.deleteAnalysis(ctx, base+"/"+item.ID(), item.ID())
		},
	}
}

// DeleteAnalyses deletes the analyses of the filtered tools
func (s *Service) DeleteAnalyses(ctx context.Context, ref util.ResourceRef, filter Filter) (*Result, error) {
	return s.Run(ctx, s.AnalysisKind(ref), filter)
}

// deleteAnalysis drives one analysis through the deletion protocol: a plain
// DELETE, an optional confirmed retry, then any chain of follow-up URLs the
// API hands back, up to MaxFollowUpHops
func (s *Service) deleteAnalysis(ctx context.Context, path, id string) error {
	step := classifyDelete(s.req.Execute(ctx, http.MethodDelete, path, nil))
	if step.state == stateConfirmNeeded {
		logging.Event(s.log, "analysis_delete_confirm", logrus.Fields{"id": id}, logrus.DebugLevel)
		step = classifyDelete(s.req.Execute(ctx, http.MethodDelete, withConfirm(path), nil))
		if step.state == stateConfirmNeeded {
			step = deleteStep{state: stateFailed, err: step.err}
		}
	}

	for hops := 0; ; hops++ {
		switch step.state {
		case stateDone:
			return nil
		case stateFailed:
			return step.err
		case stateFollowUp:
			if hops >= MaxFollowUpHops {
				return fmt.Errorf("analysis %s: %w (%d hops)", id, gherrors.ErrFollowUpLoop, MaxFollowUpHops)
			}
			logging.Event(s.log, "analysis_delete_follow_up", logrus.Fields{
				"id":  id,
				"hop": hops + 1,
			}, logrus.DebugLevel)
			step = classifyDelete(s.req.Execute(ctx, http.MethodDelete, withConfirm(step.next), nil))
			if step.state == stateConfirmNeeded {
				step = deleteStep{state: stateFailed, err: step.err}
			}
		default:
			return fmt.Errorf("analysis %s: unexpected delete state %d", id, step.state)
		}
	}
}

// classifyDelete maps the response of one DELETE to the next state
func classifyDelete(resp *github.Response, err error) deleteStep {
	if resp == nil {
		if err == nil {
			err = fmt.Errorf("empty response")
		}
		return deleteStep{state: stateFailed, err: err}
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		return deleteStep{state: stateDone}

	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(string(resp.Body)), confirmDeleteParam) {
			return deleteStep{state: stateConfirmNeeded, err: err}
		}

	case http.StatusOK, http.StatusAccepted:
		var next gh.DeleteAnalysis
		if len(resp.Body) == 0 || resp.Decode(&next) != nil {
			return deleteStep{state: stateDone}
		}
		if u := next.GetConfirmDeleteURL(); u != "" {
			return deleteStep{state: stateFollowUp, next: u}
		}
		if u := next.GetNextAnalysisURL(); u != "" {
			return deleteStep{state: stateFollowUp, next: u}
		}
		return deleteStep{state: stateDone}
	}

	if err == nil {
		err = gherrors.NewHTTPError(resp.StatusCode, "unexpected status", nil)
	}
	return deleteStep{state: stateFailed, err: err}
}

// withConfirm adds confirm_delete=true unless the URL already carries the parameter
func withConfirm(u string) string {
	if parsed, err := url.Parse(u); err == nil && parsed.Query().Has(confirmDeleteParam) {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + confirmDeleteParam + "=true"
}
