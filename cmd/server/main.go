package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/revaspay/mpesa-gateway/internal/config"
	"github.com/revaspay/mpesa-gateway/internal/dispatch"
	"github.com/revaspay/mpesa-gateway/internal/middleware"
	"github.com/revaspay/mpesa-gateway/internal/routes"
	"github.com/revaspay/mpesa-gateway/internal/services/mpesa"
)

func main() {
	cfg := config.LoadConfig()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "mpesa-gateway").Logger()
	if cfg.Environment == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	// Without Redis the gateway still acknowledges and logs every emitted
	// event, so a local setup needs no infrastructure.
	var dispatcher dispatch.Dispatcher = dispatch.NewLogDispatcher(logger)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to Redis")
		}

		dispatcher = dispatch.NewRedisDispatcher(redisClient, cfg.Redis.KeyPrefix)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("dispatching callback events to Redis")
	}

	client := mpesa.NewClient(cfg.Mpesa.ConsumerKey, cfg.Mpesa.ConsumerSecret, cfg.Mpesa.UseSandbox)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	if err := routes.SetupRoutes(router, cfg, client, dispatcher, logger); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()
	logger.Info().
		Str("port", cfg.Server.Port).
		Bool("sandbox", cfg.Mpesa.UseSandbox).
		Strs("webhook_events", cfg.Webhook.Events).
		Msg("mpesa gateway listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server exited")
}
