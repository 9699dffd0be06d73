package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/sachit-ab-lele/POC2-local/cache"
	"github.com/sachit-ab-lele/POC2-local/database"

	"github.com/gin-gonic/gin"
)

// SystemInfo contains basic system metrics and dependency status.
type SystemInfo struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	StartTime    time.Time `json:"start_time"`
	CurrentTime  time.Time `json:"current_time"`
	GoVersion    string    `json:"go_version"`
	NumGoroutine int       `json:"num_goroutine"`
	NumCPU       int       `json:"num_cpu"`
	DBStatus     string    `json:"db_status"`
	CacheStatus  string    `json:"cache_status"`
}

var (
	startTime = time.Now()
	version   = "0.1.0" // injected via build flags in release builds
)

// HealthCheck provides a basic liveness endpoint.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// SystemStatus reports runtime details plus database and counter store
// reachability.
func SystemStatus(c *gin.Context) {
	dbStatus := "ok"
	sqlDB, err := database.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "error"
	}

	cacheStatus := "ok"
	if cache.MockMode() {
		cacheStatus = "mock"
	} else if client, err := cache.GetClient(); err != nil {
		cacheStatus = "error"
	} else if client.Ping(c.Request.Context()).Err() != nil {
		cacheStatus = "error"
	}

	info := SystemInfo{
		Status:       "ok",
		Version:      version,
		Uptime:       time.Since(startTime).String(),
		StartTime:    startTime,
		CurrentTime:  time.Now(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		DBStatus:     dbStatus,
		CacheStatus:  cacheStatus,
	}

	c.JSON(http.StatusOK, info)
}
