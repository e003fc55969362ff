package api

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/okian/weekboard/pkg/logger"
)

// ImageHandler serves leaderboard images behind a render rate limit.
type ImageHandler struct {
	deps    Dependencies
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewImageHandler creates a new image handler.
func NewImageHandler(deps Dependencies, limiter *rate.Limiter, log logger.Logger) *ImageHandler {
	return &ImageHandler{deps: deps, limiter: limiter, logger: log}
}

// HandleImage handles GET /collections/{slug}/weeks/{week}/image.
// With raw=true the PNG itself is returned, otherwise the published artifact.
func (h *ImageHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard_image"
	q, err := parseImageQuery(r)
	if err != nil {
		writeError(w, r, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	if !h.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeError(w, r, h.logger, NewKind(op, ErrRateLimited))
		return
	}

	res, err := h.deps.LeaderboardArtifact(r.Context(), q.Slug, q.Week, q.Country, q.Force, q.Raw)
	if err != nil {
		writeError(w, r, h.logger, Wrap(op, err))
		return
	}

	if q.Raw {
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Bytes)))
		w.Header().Set("ETag", strconv.Quote(res.Hash))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Bytes)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
