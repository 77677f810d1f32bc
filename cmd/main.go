package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-accounts/config"
	"github.com/oksasatya/go-user-accounts/internal/container"
	"github.com/oksasatya/go-user-accounts/internal/infrastructure/store"
	"github.com/oksasatya/go-user-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-user-accounts/internal/router"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
	"github.com/oksasatya/go-user-accounts/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// User store; the service cannot run without it
	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open user store")
	}
	defer closeStore()

	// Redis backs logout revocation; skipped when REDIS_ADDR is empty
	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).Warn("redis unavailable; logout will not revoke tokens")
			_ = rdb.Close()
		} else {
			defer func() { _ = rdb.Close() }()
			container.SetRedis(rdb)
		}
	}

	// GCS for profile picture uploads
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("failed to init GCS client; file uploads disabled")
		} else {
			defer func() { _ = gcsClient.Close() }()
			container.SetGCS(helpers.NewGCSUploader(gcsClient, cfg.GCSBucket))
		}
	}

	// RabbitMQ publisher for verification emails
	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; verification emails will not be queued")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	if cfg.JWTEphemeral {
		logger.Warn("JWT_SECRET not set; using a per-process development secret, tokens will not survive a restart")
	}
	jwtManager := helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTPreviousSecrets, cfg.JWTTTL)

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetUserRepo(repo)
	container.SetJWT(jwtManager)
	container.SetHasher(helpers.NewPasswordHasher(cfg.BcryptCost))

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	// CORS
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	} else {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	if cfg.Env == "development" || cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.WithField("auth_policy", cfg.AuthPolicy).Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}
