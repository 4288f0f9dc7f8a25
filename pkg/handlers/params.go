package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/containers"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// parseContainerParam validates the named query parameter as a container
// identifier. Writes a 400 and returns ok=false when invalid or missing.
func parseContainerParam(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (containers.Container, bool) {
	container, err := containers.Parse(r.URL.Query().Get(name))
	if err != nil {
		if werr := serviceErrorResponse(w, err); werr != nil {
			logger.Error("Failed to write error response", zap.Error(werr))
		}
		return "", false
	}
	return container, true
}

// parsePagination reads page and limit query parameters, applying defaults
// and clamping the page size.
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultPageSize

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
