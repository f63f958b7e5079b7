package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"trono-server/config"
	"trono-server/handlers"
	"trono-server/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := setupLogger(cfg.Development())
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Server shut down")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// Mongo
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	defer func() {
		disconnectCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}

	collection := mongoClient.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	poiService := services.NewPOIService(services.NewMongoPOIStore(collection, cfg.POI.Limit), logger)
	if err := poiService.Init(ctx, cfg.POI.SeedFile); err != nil {
		return fmt.Errorf("failed to load POIs: %w", err)
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The location cache is best effort; keep serving without it.
		logger.Warn("Redis unavailable, last known locations will not survive restarts", slog.Any("error", err))
	}

	sessionService := services.NewSessionService(ctx, redisClient, services.SessionConfig{
		CacheKey:       cfg.Location.CacheKey,
		SourceOptions:  cfg.SourceOptions(),
		IdleTimeout:    cfg.Location.IdleTimeout,
		DefaultMapView: cfg.DefaultMapView(),
	}, logger)
	authService := services.NewAuthService(cfg.JWT.Secret, cfg.JWT.SessionTTL)
	ranker := services.NewRanker(cfg.Ranking.RankOptions, cfg.Ranking.MemoTTL)

	router := handlers.NewRouter(
		handlers.RouterConfig{AllowedOrigins: cfg.Server.AllowedOrigins, Sessions: authService, Logger: logger},
		handlers.NewAuthHandler(authService, logger),
		handlers.NewPOIHandler(poiService, ranker, cfg.Labels),
		handlers.NewUserHandler(sessionService, poiService, ranker, cfg.Labels, logger),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", slog.String("address", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, draining connections")
		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return poiService.Run(gctx, cfg.POI.RefreshInterval)
	})

	g.Go(func() error {
		return sessionService.Run(gctx, cfg.Location.EvictInterval)
	})

	return g.Wait()
}

// setupLogger returns a colored logger for development and JSON everywhere else.
func setupLogger(development bool) *slog.Logger {
	if development {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
