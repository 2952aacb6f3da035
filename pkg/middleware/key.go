package middleware

import (
	"net/http"
	"sort"
	"strings"
)

// DefaultKey derives a deterministic cache key from a request: the method,
// the trimmed path, and the query parameters sorted by name, colon-joined.
//
// Example:
//
//	GET /api/items?page=2&sort=name -> GET:api/items:page=2:sort=name
//
// Requests with identical method, path, and query always produce the same
// key; parameter order in the URL does not matter.
func DefaultKey(r *http.Request) string {
	parts := []string{r.Method}

	if path := strings.Trim(r.URL.Path, "/"); path != "" {
		parts = append(parts, path)
	}

	query := r.URL.Query()
	if len(query) > 0 {
		names := make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			values := query[name]
			sort.Strings(values)
			for _, value := range values {
				parts = append(parts, name+"="+value)
			}
		}
	}

	return strings.Join(parts, ":")
}
