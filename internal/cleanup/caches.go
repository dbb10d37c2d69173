package cleanup

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Didstopia/forgeops/pkg/util"
)

// CacheKind describes GitHub Actions cache entries of a repository
func (s *Service) CacheKind(ref util.ResourceRef) Kind {
	base := fmt.Sprintf("repos/%s/%s/actions/caches", ref.Owner, ref.Repo)
	return Kind{
		Name:     "cache_delete",
		Path:     base,
		ArrayKey: "actions_caches",
		Decode:   decodeCacheEntry,
		Apply: func(ctx context.Context, item Item) error {
			_, err := s.req.Execute(ctx, http.MethodDelete, base+"/"+item.ID(), nil)
			return err
		},
	}
}

// DeleteCaches deletes every Actions cache entry of a repository
func (s *Service) DeleteCaches(ctx context.Context, ref util.ResourceRef, filter Filter) (*Result, error) {
	return s.Run(ctx, s.CacheKind(ref), filter)
}
