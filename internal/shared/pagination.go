package shared

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// ListParams carries limit/offset pagination for list queries.
type ListParams struct {
	Limit  int
	Offset int
}

// ParseListParams reads limit/offset query parameters, clamping to sane bounds.
func ParseListParams(r *http.Request) ListParams {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return ListParams{Limit: limit, Offset: offset}
}
