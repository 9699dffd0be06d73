package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sachit-ab-lele/POC2-local/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCreatePoll(t *testing.T) {
	router, _, _ := setupTestEnvironment(t)

	pollData := gin.H{
		"question": "Unit Test Poll?",
		"options":  []string{"Yes", "No"},
	}
	jsonData, _ := json.Marshal(pollData)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/polls", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", adminToken(t))

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var createdPoll models.Poll
	err := json.Unmarshal(w.Body.Bytes(), &createdPoll)
	assert.NoError(t, err)
	assert.Equal(t, "Unit Test Poll?", createdPoll.Question)
	assert.Equal(t, models.StatusDraft, createdPoll.Status)
	assert.Equal(t, models.OptionList{"Yes", "No"}, createdPoll.Options)
	assert.Len(t, createdPoll.ID, 36)
}

func TestCreatePoll_RequiresAdmin(t *testing.T) {
	router, _, _ := setupTestEnvironment(t)

	jsonData, _ := json.Marshal(gin.H{"question": "Q?", "options": []string{"A", "B"}})

	// no token
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/polls", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// non-admin token
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/polls", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", userToken(t, "42", "alice"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePoll_InvalidInput(t *testing.T) {
	router, _, _ := setupTestEnvironment(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{
			name: "Missing question",
			body: gin.H{"options": []string{"A", "B"}},
		},
		{
			name: "Missing options",
			body: gin.H{"question": "Q?"},
		},
		{
			name: "Not enough options",
			body: gin.H{"question": "Q?", "options": []string{"A"}},
		},
		{
			name: "Duplicate options",
			body: gin.H{"question": "Q?", "options": []string{"A", "A"}},
		},
		{
			name: "Empty option label",
			body: gin.H{"question": "Q?", "options": []string{"A", ""}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			jsonData, _ := json.Marshal(tc.body)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/polls", bytes.NewBuffer(jsonData))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", adminToken(t))

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetPolls(t *testing.T) {
	router, _, coordinator := setupTestEnvironment(t)

	_, err := coordinator.CreatePoll(context.Background(), "Poll 1", []string{"1A", "1B"})
	assert.NoError(t, err)
	_, err = coordinator.CreatePoll(context.Background(), "Poll 2", []string{"2A", "2B"})
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/polls", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var polls []models.Poll
	err = json.Unmarshal(w.Body.Bytes(), &polls)
	assert.NoError(t, err)
	assert.Len(t, polls, 2)
}

func TestGetPolls_Empty(t *testing.T) {
	router, _, _ := setupTestEnvironment(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/polls", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var polls []models.Poll
	err := json.Unmarshal(w.Body.Bytes(), &polls)
	assert.NoError(t, err)
	assert.Len(t, polls, 0)
}

func TestGetPoll(t *testing.T) {
	router, _, coordinator := setupTestEnvironment(t)

	poll, err := coordinator.CreatePoll(context.Background(), "Specific Poll", []string{"Opt A", "Opt B"})
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/polls/"+poll.ID, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var fetchedPoll models.Poll
	err = json.Unmarshal(w.Body.Bytes(), &fetchedPoll)
	assert.NoError(t, err)
	assert.Equal(t, poll.ID, fetchedPoll.ID)
	assert.Equal(t, "Specific Poll", fetchedPoll.Question)
	assert.Equal(t, models.OptionList{"Opt A", "Opt B"}, fetchedPoll.Options)
}

func TestGetPoll_NotFound(t *testing.T) {
	router, _, _ := setupTestEnvironment(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/polls/b4b8f4a0-0000-0000-0000-000000000000", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var responseBody map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &responseBody)
	assert.NoError(t, err)
	assert.Equal(t, "Poll not found", responseBody["error"])
}

func TestGetPoll_MalformedID(t *testing.T) {
	router, _, _ := setupTestEnvironment(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/polls/not-a-uuid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivatePoll(t *testing.T) {
	router, _, coordinator := setupTestEnvironment(t)

	poll, err := coordinator.CreatePoll(context.Background(), "Activate Me", []string{"A", "B"})
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	url := fmt.Sprintf("/api/polls/%s/activate", poll.ID)
	req, _ := http.NewRequest("POST", url, nil)
	req.Header.Set("Authorization", adminToken(t))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	updated, err := coordinator.GetPoll(context.Background(), poll.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusActive, updated.Status)

	// counters are seeded to zero on activation
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", fmt.Sprintf("/api/polls/%s/results", poll.ID), nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var counts map[string]int64
	err = json.Unmarshal(w.Body.Bytes(), &counts)
	assert.NoError(t, err)
	assert.Equal(t, map[string]int64{"A": 0, "B": 0}, counts)
}

func TestDeactivatePoll(t *testing.T) {
	router, _, coordinator := setupTestEnvironment(t)

	poll, err := coordinator.CreatePoll(context.Background(), "Short Lived", []string{"A", "B"})
	assert.NoError(t, err)
	assert.NoError(t, coordinator.Activate(context.Background(), poll.ID))

	w := httptest.NewRecorder()
	url := fmt.Sprintf("/api/polls/%s/deactivate", poll.ID)
	req, _ := http.NewRequest("POST", url, nil)
	req.Header.Set("Authorization", adminToken(t))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	updated, err := coordinator.GetPoll(context.Background(), poll.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusInactive, updated.Status)
}

func TestDeletePoll(t *testing.T) {
	router, db, coordinator := setupTestEnvironment(t)

	poll, err := coordinator.CreatePoll(context.Background(), "To Be Deleted", []string{"Del A", "Del B"})
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/polls/"+poll.ID, nil)
	req.Header.Set("Authorization", adminToken(t))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var responseBody map[string]string
	err = json.Unmarshal(w.Body.Bytes(), &responseBody)
	assert.NoError(t, err)
	assert.Equal(t, "Poll deleted successfully", responseBody["message"])

	// gone from the API
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/polls/"+poll.ID, nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// tombstone kept in the table
	var count int64
	db.Unscoped().Model(&models.Poll{}).Where("id = ?", poll.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeletePoll_NotFound(t *testing.T) {
	router, _, _ := setupTestEnvironment(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/polls/b4b8f4a0-0000-0000-0000-000000000000", nil)
	req.Header.Set("Authorization", adminToken(t))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
