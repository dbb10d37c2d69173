package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Didstopia/forgeops/internal/logging"
)

// Lister walks paginated list endpoints page by page
type Lister struct {
	req Requester
	log logrus.FieldLogger
}

// NewLister creates a lister on top of a requester
func NewLister(req Requester, log logrus.FieldLogger) *Lister {
	if log == nil {
		log = logging.Discard()
	}
	return &Lister{req: req, log: log}
}

// Each requests path one page at a time and calls fn for every raw item as
// soon as its page arrives. It stops after a short or empty page, when a page
// cannot be interpreted (logged, not returned), when fn returns an error, or
// when a page request fails.
func (l *Lister) Each(ctx context.Context, path string, opts ListOptions, fn func(item json.RawMessage) error) error {
	perPage := ClampPerPage(opts.PerPage)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pagePath, err := pageURL(path, opts.Query, page, perPage)
		if err != nil {
			return err
		}

		resp, err := l.req.Execute(ctx, http.MethodGet, pagePath, nil)
		if err != nil {
			return err
		}

		items, err := pageItems(resp.Body, opts.ArrayKey)
		if err != nil {
			logging.Event(l.log, "paginate_error", logrus.Fields{
				"path":  path,
				"page":  page,
				"error": err.Error(),
			}, logrus.ErrorLevel)
			return nil
		}

		logging.Event(l.log, "paginate_page_ok", logrus.Fields{
			"path":  path,
			"page":  page,
			"count": len(items),
		}, logrus.DebugLevel)

		for _, item := range items {
			if err := fn(item); err != nil {
				return err
			}
		}

		if len(items) < perPage {
			logging.Event(l.log, "paginate_last_page", logrus.Fields{
				"path": path,
				"page": page,
			}, logrus.DebugLevel)
			return nil
		}
	}
}

// Collect gathers every raw item of a listing
func (l *Lister) Collect(ctx context.Context, path string, opts ListOptions) ([]json.RawMessage, error) {
	var all []json.RawMessage
	err := l.Each(ctx, path, opts, func(item json.RawMessage) error {
		all = append(all, item)
		return nil
	})
	return all, err
}

// pageURL merges the page cursor and extra query into path
func pageURL(path string, query url.Values, page, perPage int) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid list path %q: %w", path, err)
	}

	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// pageItems extracts the item array from a page body: either the body itself
// or the array under arrayKey. Without a key, the first array-valued field in
// key order is used.
func pageItems(body []byte, arrayKey string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty page body")
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("invalid page array: %w", err)
		}
		return items, nil

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("invalid page object: %w", err)
		}

		if arrayKey != "" {
			raw, ok := fields[arrayKey]
			if !ok {
				return nil, fmt.Errorf("page object has no %q field", arrayKey)
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("field %q is not an array", arrayKey)
			}
			return items, nil
		}

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			raw := bytes.TrimSpace(fields[k])
			if len(raw) == 0 || raw[0] != '[' {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err == nil {
				return items, nil
			}
		}
		return nil, fmt.Errorf("page object has no array field")

	default:
		return nil, fmt.Errorf("page body is neither an array nor an object")
	}
}
