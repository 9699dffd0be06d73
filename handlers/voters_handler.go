package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// VoterEntry is one row of the privileged voter audit view.
type VoterEntry struct {
	Username string `json:"username"`
	Option   string `json:"option"`
	VotedAt  string `json:"voted_at"`
}

// ListVoters returns who voted for what on a poll, most recent first. The
// route is gated to the admin role.
func (h *PollHandler) ListVoters(c *gin.Context) {
	records, err := h.coordinator.ListVoters(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	voters := make([]VoterEntry, len(records))
	for i, record := range records {
		voters[i] = VoterEntry{
			Username: record.Username,
			Option:   record.Option,
			VotedAt:  record.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, voters)
}
