// Package social reconciles the authenticated user's follow graph against an
// allowlist/blocklist policy
package social

import (
	"sort"
	"strings"
)

// Diff is the set of follow graph changes a sync would make
type Diff struct {
	ToFollow   []string `json:"to_follow"`
	ToUnfollow []string `json:"to_unfollow"`
}

type set map[string]struct{}

func newSet(items []string) set {
	s := make(set, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			s[item] = struct{}{}
		}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Reconcile computes the follow graph changes:
//
//   - to unfollow: accounts followed and not allowlisted; with a non-empty
//     blocklist, only blocklisted ones
//   - to follow: followers and allowlisted accounts not yet followed, minus
//     the blocklist
//
// It is pure; results are sorted.
func Reconcile(following, followers, allowlist, blocklist []string) Diff {
	followingSet := newSet(following)
	allow := newSet(allowlist)
	block := newSet(blocklist)

	unfollow := make(set)
	for login := range followingSet {
		if allow.has(login) {
			continue
		}
		if len(block) > 0 && !block.has(login) {
			continue
		}
		unfollow[login] = struct{}{}
	}

	follow := make(set)
	for _, candidates := range []set{newSet(followers), allow} {
		for login := range candidates {
			if followingSet.has(login) || block.has(login) {
				continue
			}
			follow[login] = struct{}{}
		}
	}

	return Diff{
		ToFollow:   follow.sorted(),
		ToUnfollow: unfollow.sorted(),
	}
}
