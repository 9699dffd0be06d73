package handlers

import (
	"fmt"
	"net/http"

	"github.com/sachit-ab-lele/POC2-local/auth"

	"github.com/gin-gonic/gin"
)

// VoteInput defines the expected input structure for casting a vote.
type VoteInput struct {
	Option string `json:"option" binding:"required"`
}

// CastVote submits a vote on a poll option for the authenticated user. The
// identity is resolved upstream by the auth middleware; the coordinator
// guarantees at most one accepted vote per user per poll.
func (h *PollHandler) CastVote(c *gin.Context) {
	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voter, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	counts, err := h.coordinator.CastVote(c.Request.Context(), c.Param("id"), voter, input.Option)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         fmt.Sprintf("Vote for %s recorded", input.Option),
		"option":          input.Option,
		"current_results": counts,
	})
}
