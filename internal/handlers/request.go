package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"carenest/internal/apperr"
	"carenest/internal/models"
)

// pathID parses a positive integer path parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid %s", name)
	}
	return id, nil
}

// queryInt64 parses an optional integer query parameter
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.Validation("Invalid %s", name)
	}
	return &id, nil
}

// queryList accepts both repeated and comma-separated values
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// listOptions reads page, limit, sortBy and sortOrder. Bad numbers fall back
// to the defaults.
func listOptions(r *http.Request) models.ListOptions {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return models.ListOptions{
		Page:      page,
		Limit:     limit,
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}.Normalize()
}
