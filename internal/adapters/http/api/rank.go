package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, class, field, name, squad string) (Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{class}/{name}?squad=S&sort=F requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	class, name, ok := strings.Cut(strings.TrimPrefix(r.URL.EscapedPath(), "/rank/"), "/")
	if !ok || class == "" || name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	class, err := url.PathUnescape(class)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if name, err = url.PathUnescape(name); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	q := r.URL.Query()
	entry, err := h.deps.Rank(r.Context(), class, strings.TrimSpace(q.Get("sort")), name, q.Get("squad"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
