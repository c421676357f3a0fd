package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizrumble/internal/cache"
	"quizrumble/internal/config"
	"quizrumble/internal/game"
	"quizrumble/internal/repository"
	"quizrumble/internal/service"
	"quizrumble/internal/transport/rest"
	"quizrumble/internal/transport/ws"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	logger.Info().Str("db", cfg.MongoDB).Msg("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPass,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping Redis")
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	// Repositories
	sessionRepo := repository.NewSessionRepo(db)
	teamRepo := repository.NewTeamRepo(db)
	roundRepo := repository.NewRoundRepo(db)
	answerRepo := repository.NewAnswerRepo(db)
	voteRepo := repository.NewVoteRepo(db)
	deckRepo := repository.NewDeckRepo(db)

	// Caches and event bus
	sessCache := cache.NewSessionCache(rdb)
	leaderboard := cache.NewLeaderboardCache(rdb)
	eventBus := cache.NewEventBus(rdb)

	// Services
	authSvc := service.NewAuthService(cfg.HostUsername, cfg.HostPassword, cfg.JWTSecret)
	sessionSvc := service.NewSessionService(
		sessionRepo, teamRepo, roundRepo, answerRepo, voteRepo, deckRepo,
		sessCache, leaderboard, authSvc,
		cfg.ScoreConfig(), game.DefaultBonusSet(), cfg.SessionDefaults(),
		logger,
	)
	ledgerSvc := service.NewLedgerService(sessionRepo, teamRepo, roundRepo, answerRepo, voteRepo, logger)

	sessionSvc.SetPublisher(eventBus)
	ledgerSvc.SetPublisher(eventBus)

	orchestrator := service.NewOrchestrator(
		sessionRepo, teamRepo, roundRepo, answerRepo, voteRepo,
		sessionSvc, cfg.TickInterval, logger,
	)
	sessionSvc.SetWatcher(orchestrator)

	// Re-attach watchers to sessions that were live before a restart.
	if err := orchestrator.Resume(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to resume session watchers")
	}

	// WebSocket hub fed by the event bus
	wsHub := ws.NewHub(logger)
	hubCtx, hubCancel := context.WithCancel(ctx)
	defer hubCancel()
	go func() {
		if err := wsHub.Run(hubCtx, eventBus); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("websocket hub stopped")
		}
	}()

	router := rest.NewRouter(&rest.Container{
		AuthService:    authSvc,
		SessionService: sessionSvc,
		LedgerService:  ledgerSvc,
		WSHub:          wsHub,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("forced shutdown")
	}

	hubCancel()
	orchestrator.Stop()
	logger.Info().Msg("server exited")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogJSON {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
