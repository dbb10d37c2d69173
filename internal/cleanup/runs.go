package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Didstopia/forgeops/pkg/util"
)

// WorkflowRunKind describes the completed GitHub Actions workflow runs of a
// repository; runs still queued or in progress are never listed
func (s *Service) WorkflowRunKind(ref util.ResourceRef) Kind {
	base := fmt.Sprintf("repos/%s/%s/actions/runs", ref.Owner, ref.Repo)
	return Kind{
		Name:     "workflow_run_delete",
		Path:     base,
		ArrayKey: "workflow_runs",
		Query:    url.Values{"status": []string{"completed"}},
		Decode:   decodeWorkflowRun,
		Apply: func(ctx context.Context, item Item) error {
			_, err := s.req.Execute(ctx, http.MethodDelete, base+"/"+item.ID(), nil)
			return err
		},
	}
}

// DeleteWorkflowRuns deletes the completed workflow runs of a repository
func (s *Service) DeleteWorkflowRuns(ctx context.Context, ref util.ResourceRef, filter Filter) (*Result, error) {
	return s.Run(ctx, s.WorkflowRunKind(ref), filter)
}
