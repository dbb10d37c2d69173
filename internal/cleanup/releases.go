package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	gherrors "github.com/Didstopia/forgeops/internal/errors"
	"github.com/Didstopia/forgeops/internal/logging"
	"github.com/Didstopia/forgeops/pkg/util"
)

// ReleaseKind describes the releases of a repository. With deleteTags, the
// git tag behind each deleted release is removed too; a tag that is already
// gone is fine, any other failed tag deletion is logged and does not fail the
// release.
func (s *Service) ReleaseKind(ref util.ResourceRef, deleteTags bool) Kind {
	base := fmt.Sprintf("repos/%s/%s", ref.Owner, ref.Repo)
	return Kind{
		Name:   "release_delete",
		Path:   base + "/releases",
		Decode: decodeRelease,
		Apply: func(ctx context.Context, item Item) error {
			if _, err := s.req.Execute(ctx, http.MethodDelete, base+"/releases/"+item.ID(), nil); err != nil {
				return err
			}

			release, ok := item.(Release)
			if !deleteTags || !ok || release.GetTagName() == "" {
				return nil
			}

			tagRef := base + "/git/refs/tags/" + url.PathEscape(release.GetTagName())
			_, err := s.req.Execute(ctx, http.MethodDelete, tagRef, nil)
			switch {
			case err == nil:
			case gherrors.IsNotFound(err):
				logging.Event(s.log, "release_delete_tag_gone", logrus.Fields{
					"id":  item.ID(),
					"tag": release.GetTagName(),
				}, logrus.DebugLevel)
			default:
				logging.Event(s.log, "release_delete_tag_error", logrus.Fields{
					"id":     item.ID(),
					"tag":    release.GetTagName(),
					"status": gherrors.StatusCode(err),
					"error":  err.Error(),
				}, logrus.WarnLevel)
			}
			return nil
		},
	}
}

// DeleteReleases deletes the releases of a repository that pass filter
func (s *Service) DeleteReleases(ctx context.Context, ref util.ResourceRef, filter Filter, deleteTags bool) (*Result, error) {
	return s.Run(ctx, s.ReleaseKind(ref, deleteTags), filter)
}
