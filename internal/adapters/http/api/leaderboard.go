package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// DefaultClass is the leaderboard used when no class is requested.
const DefaultClass = "outfield"

const defaultLimit = 10

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	TopN(ctx context.Context, class, field string, n int) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?class=C&sort=F&limit=N
// requests. Class defaults to outfield, sort to the class ranking field and
// limit to 10 capped at the maximum.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	class := strings.TrimSpace(q.Get("class"))
	if class == "" {
		class = DefaultClass
	}

	n := defaultLimit
	if h.maxLimit > 0 && n > h.maxLimit {
		n = h.maxLimit
	}
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("limit %q: %w", s, ErrBadRequest))
			return
		}
		n = v
	}
	if h.maxLimit > 0 && n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("limit %d > %d: %w", n, h.maxLimit, ErrLimitExceeded))
		return
	}

	entries, err := h.deps.TopN(r.Context(), class, strings.TrimSpace(q.Get("sort")), n)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
