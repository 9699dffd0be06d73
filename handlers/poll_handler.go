package handlers

import (
	"net/http"

	"github.com/sachit-ab-lele/POC2-local/service"

	"github.com/gin-gonic/gin"
)

// PollHandler exposes poll lifecycle management over HTTP. All invariants
// live in the coordinator; this layer only binds input and maps errors.
type PollHandler struct {
	coordinator *service.Coordinator
}

// NewPollHandler binds the handler set to the coordinator.
func NewPollHandler(coordinator *service.Coordinator) *PollHandler {
	return &PollHandler{coordinator: coordinator}
}

// CreatePollInput defines the expected input structure for creating a poll.
type CreatePollInput struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required,min=2"`
}

// CreatePoll handles the creation of a new poll. New polls start in draft
// state and accept no votes until activated.
func (h *PollHandler) CreatePoll(c *gin.Context) {
	var input CreatePollInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	poll, err := h.coordinator.CreatePoll(c.Request.Context(), input.Question, input.Options)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, poll)
}

// GetPolls retrieves all polls, newest first.
func (h *PollHandler) GetPolls(c *gin.Context) {
	polls, err := h.coordinator.ListPolls(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, polls)
}

// GetActivePolls retrieves the polls currently accepting votes.
func (h *PollHandler) GetActivePolls(c *gin.Context) {
	polls, err := h.coordinator.ActivePolls(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, polls)
}

// GetPoll retrieves a single poll by ID.
func (h *PollHandler) GetPoll(c *gin.Context) {
	poll, err := h.coordinator.GetPoll(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

// ActivatePoll opens a poll for voting, seeding its counters.
func (h *PollHandler) ActivatePoll(c *gin.Context) {
	if err := h.coordinator.Activate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Poll activated successfully"})
}

// DeactivatePoll closes a poll and reclaims its counters.
func (h *PollHandler) DeactivatePoll(c *gin.Context) {
	if err := h.coordinator.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Poll deactivated successfully"})
}

// DeletePoll removes a poll, its counters and its vote records.
func (h *PollHandler) DeletePoll(c *gin.Context) {
	if err := h.coordinator.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Poll deleted successfully"})
}
