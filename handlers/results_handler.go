package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetResults reports vote tallies. With a poll_id query parameter it reads
// that poll's tally (live counters, snapshot fallback); without one it
// reports the most recent snapshot overall, falling back to zero-filled
// counts for an active poll, or an empty result when there is nothing to
// report.
func (h *PollHandler) GetResults(c *gin.Context) {
	ctx := c.Request.Context()

	if pollID := c.Query("poll_id"); pollID != "" {
		counts, err := h.coordinator.Results(ctx, pollID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, counts)
		return
	}

	counts, err := h.coordinator.LatestResults(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// GetPollResults is the path-parameter variant of GetResults for a single
// poll.
func (h *PollHandler) GetPollResults(c *gin.Context) {
	counts, err := h.coordinator.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}
