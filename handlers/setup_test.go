package handlers

import (
	"log"
	"os"
	"testing"

	"github.com/sachit-ab-lele/POC2-local/auth"
	"github.com/sachit-ab-lele/POC2-local/cache"
	"github.com/sachit-ab-lele/POC2-local/database"
	"github.com/sachit-ab-lele/POC2-local/models"
	"github.com/sachit-ab-lele/POC2-local/repository"
	"github.com/sachit-ab-lele/POC2-local/service"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestEnvironment builds the full stack on in-memory SQLite and the
// mock counter store, with the same routes as production.
func setupTestEnvironment(t *testing.T) (*gin.Engine, *gorm.DB, *service.Coordinator) {
	testing.Init()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	// a single connection serializes writers, so concurrent requests hit the
	// unique index instead of SQLITE_BUSY
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	database.DB = db
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	os.Setenv("REDIS_MOCK", "true")
	if err := cache.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize mock counter store: %v", err)
	}
	cache.ResetMock()

	clearTables(db)

	t.Cleanup(func() {
		clearTables(db)
		cache.ResetMock()
	})

	coordinator := service.NewCoordinator(
		repository.NewPollRegistry(db),
		repository.NewVoteLedger(db),
		repository.NewSnapshotStore(db),
		cache.NewCounterStore(),
		cache.GetLockService(),
		service.Config{},
	)
	h := NewPollHandler(coordinator)

	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)
		api.POST("/login", Login)
		api.GET("/results", h.GetResults)

		polls := api.Group("/polls")
		{
			polls.GET("", h.GetPolls)
			polls.GET("/active", h.GetActivePolls)
			polls.GET("/:id", h.GetPoll)
			polls.GET("/:id/results", h.GetPollResults)

			authed := polls.Group("")
			authed.Use(auth.Middleware())
			{
				authed.POST("/:id/vote", h.CastVote)
			}

			admin := polls.Group("")
			admin.Use(auth.Middleware(), auth.RequireRole("admin"))
			{
				admin.POST("", h.CreatePoll)
				admin.POST("/:id/activate", h.ActivatePoll)
				admin.POST("/:id/deactivate", h.DeactivatePoll)
				admin.DELETE("/:id", h.DeletePoll)
				admin.GET("/:id/voters", h.ListVoters)
			}
		}
	}

	return router, db, coordinator
}

func clearTables(db *gorm.DB) {
	session := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	session.Unscoped().Delete(&models.VoteRecord{})
	session.Unscoped().Delete(&models.Snapshot{})
	session.Unscoped().Delete(&models.Poll{})
	session.Unscoped().Delete(&models.User{})
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.NewToken("1", "admin", "admin")
	if err != nil {
		t.Fatalf("failed to issue admin token: %v", err)
	}
	return "Bearer " + token
}

func userToken(t *testing.T, userID, username string) string {
	t.Helper()
	token, err := auth.NewToken(userID, username, "user")
	if err != nil {
		t.Fatalf("failed to issue user token: %v", err)
	}
	return "Bearer " + token
}
