package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sachit-ab-lele/POC2-local/cache"
	"github.com/sachit-ab-lele/POC2-local/database"
	"github.com/sachit-ab-lele/POC2-local/handlers"
	"github.com/sachit-ab-lele/POC2-local/mq"
	"github.com/sachit-ab-lele/POC2-local/repository"
	"github.com/sachit-ab-lele/POC2-local/routes"
	"github.com/sachit-ab-lele/POC2-local/service"
)

func main() {
	if err := database.InitDB(); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	if err := cache.InitRedis(); err != nil {
		log.Fatalf("failed to initialize redis: %v", err)
	}
	defer cache.CloseRedis()

	cache.InitDistLock()

	coordinator := service.NewCoordinator(
		repository.NewPollRegistry(database.DB),
		repository.NewVoteLedger(database.DB),
		repository.NewSnapshotStore(database.DB),
		cache.NewCounterStore(),
		cache.GetLockService(),
		service.Config{
			SingleActivePoll: os.Getenv("SINGLE_ACTIVE_POLL") == "true",
		},
	)

	// Tally events flow through the queue to the WebSocket hub, so a vote
	// returns before any fan-out work happens.
	redisClient, _ := cache.GetClient()
	queue := mq.NewTallyQueue(redisClient)
	queue.RegisterHandler(handlers.BroadcastTally)
	if err := queue.Start(); err != nil {
		log.Fatalf("failed to start tally queue: %v", err)
	}
	defer queue.Close()

	coordinator.SetPublisher(queue.Publish)

	router := routes.SetupRouter(handlers.NewPollHandler(coordinator))
	srv := routes.StartServer(router)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
