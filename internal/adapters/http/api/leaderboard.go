package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/weekboard/pkg/logger"
)

// LeaderboardHandler serves the JSON leaderboard endpoints.
type LeaderboardHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, logger: log}
}

// HandleWeekly handles GET /collections/{slug}/weeks/{week}.
func (h *LeaderboardHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_weekly_leaderboard"
	q, err := parsePageQuery(r)
	if err != nil {
		writeError(w, r, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	page, err := h.deps.WeeklyLeaderboard(r.Context(), q.Slug, chi.URLParam(r, "week"), q.Country, q.Page, q.Limit)
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleItems handles GET /collections/{slug}/items.
func (h *LeaderboardHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_collection_items"
	q, err := parsePageQuery(r)
	if err != nil {
		writeError(w, r, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	page, err := h.deps.CollectionItems(r.Context(), q.Slug, q.Country, q.Page, q.Limit, q.Sort, q.Order)
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type weeksResponse struct {
	Weeks []string `json:"weeks"`
}

// HandleWeeks handles GET /collections/{slug}/weeks.
func (h *LeaderboardHandler) HandleWeeks(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_weeks"
	weeks, err := h.deps.Weeks(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}
	if weeks == nil {
		weeks = []string{}
	}
	writeJSON(w, http.StatusOK, weeksResponse{Weeks: weeks})
}
