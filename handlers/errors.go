package handlers

import (
	"errors"
	"net/http"

	"github.com/sachit-ab-lele/POC2-local/service"

	"github.com/gin-gonic/gin"
)

// respondError translates coordinator errors to HTTP responses. Raw store
// errors never cross this boundary: anything unclassified is reported as a
// service-unavailable condition.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPollID),
		errors.Is(err, service.ErrInvalidPoll),
		errors.Is(err, service.ErrInvalidOption):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPollNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
	case errors.Is(err, service.ErrPollNotActive):
		c.JSON(http.StatusForbidden, gin.H{"error": "Voting on this poll is closed"})
	case errors.Is(err, service.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, gin.H{"error": "You have already voted on this poll"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
	}
}
