package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sachit-ab-lele/POC2-local/auth"
	"github.com/sachit-ab-lele/POC2-local/database"
	"github.com/sachit-ab-lele/POC2-local/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LoginInput defines the expected credentials payload.
type LoginInput struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login checks credentials against the user table and issues an access
// token. Password handling mirrors the upstream identity service this
// stands in for; hardening it is out of scope here.
func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := database.DB.WithContext(c.Request.Context()).
		First(&user, "username = ?", input.Username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		}
		return
	}

	if user.Password != input.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}

	token, err := auth.NewToken(strconv.FormatUint(uint64(user.ID), 10), user.Username, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"role":         user.Role,
	})
}
