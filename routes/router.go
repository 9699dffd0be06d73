package routes

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sachit-ab-lele/POC2-local/auth"
	"github.com/sachit-ab-lele/POC2-local/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server wraps the HTTP server so main can shut it down gracefully.
type Server struct {
	*http.Server
}

// SetupRouter configures the Gin engine: CORS, rate limiting and the full
// API surface. Poll management and the voter audit view require the admin
// role; voting requires any authenticated user; results and tally streams
// are public.
func SetupRouter(h *handlers.PollHandler) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.InitRateLimiter()

	api := router.Group("/api")
	{
		api.Use(handlers.RateLimitMiddleware())

		api.GET("/health", handlers.HealthCheck)
		api.GET("/status", handlers.SystemStatus)

		api.POST("/login", handlers.Login)

		// public read surface
		api.GET("/results", h.GetResults)

		polls := api.Group("/polls")
		{
			polls.GET("", h.GetPolls)
			polls.GET("/active", h.GetActivePolls)
			polls.GET("/:id", h.GetPoll)
			polls.GET("/:id/results", h.GetPollResults)
			polls.GET("/:id/ws", handlers.HandleWebSocket)

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

	return router
}

func allowedOrigins() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return []string{"*"}
	}

	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// StartServer starts the HTTP server on SERVER_PORT (default 8090).
func StartServer(router *gin.Engine) *Server {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8090"
	}
	addr := ":" + port

	srv := &Server{
		&http.Server{
			Addr:    addr,
			Handler: router,
		},
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	return srv
}
