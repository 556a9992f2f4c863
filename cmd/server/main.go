package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"livepoll/internal/bus"
	"livepoll/internal/config"
	"livepoll/internal/repository"
	"livepoll/internal/scheduler"
	"livepoll/internal/service"
	"livepoll/internal/transport/rest"
	"livepoll/internal/transport/ws"
)

// @title Live Poll API
// @version 1.0
// @description Real-time classroom polling with votes, chat and moderation
// @host localhost:8080
// @BasePath /
func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	logger.Info("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("failed to ping Redis", zap.Error(err))
	}
	logger.Info("connected to Redis")

	// Event fanout: coordinator -> redis channel -> hub -> every client
	eventBus := bus.NewRedis(rdb)
	hub := ws.NewHub(logger)
	if err := hub.Consume(ctx, eventBus); err != nil {
		logger.Fatal("failed to subscribe to event bus", zap.Error(err))
	}

	sched := scheduler.New()
	defer sched.Stop()

	pollSvc := service.NewPollService(
		repository.NewPollRepo(db),
		repository.NewVoteRepo(db),
		repository.NewParticipantRepo(db),
		repository.NewChatRepo(db),
		sched,
		eventBus,
		logger,
	)

	// Re-arm the expiry timer for a poll that was active when the process
	// last stopped. Best effort: the lazy expiry check on read covers a
	// poll whose deadline passed while we were down.
	if active, err := pollSvc.GetActivePoll(ctx); err != nil {
		logger.Warn("failed to check for active poll", zap.Error(err))
	} else if active != nil {
		pollID := active.ID
		sched.Arm(pollID, time.Duration(active.RemainingTime)*time.Second, func() {
			if err := pollSvc.CompletePoll(context.Background(), pollID); err != nil {
				logger.Warn("timer-driven completion failed",
					zap.String("pollId", pollID), zap.Error(err))
			}
		})
		logger.Info("re-armed expiry timer",
			zap.String("pollId", pollID),
			zap.Int("remaining", active.RemainingTime))
	}

	router := rest.NewRouter(&rest.Container{
		Polls: pollSvc,
		Hub:   hub,
		Cfg:   cfg,
		Log:   logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen and serve", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
