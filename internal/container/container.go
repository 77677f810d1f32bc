package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-accounts/config"
	"github.com/oksasatya/go-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons. Optional components
// (redis, gcs, rabbit) stay nil when not configured.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	userRepo    repository.UserRepository
	redisClient *redis.Client
	gcsUploader *helpers.GCSUploader

	jwtManager *helpers.JWTManager
	hasher     *helpers.PasswordHasher

	rabbitPub *helpers.RabbitPublisher
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config {
	if cfg == nil {
		cfg = config.Load()
	}
	return cfg
}
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return logger
}
func SetUserRepo(r repository.UserRepository) { userRepo = r }
func GetUserRepo() repository.UserRepository  { return userRepo }
func SetRedis(r *redis.Client)                { redisClient = r }
func GetRedis() *redis.Client                 { return redisClient }
func SetGCS(u *helpers.GCSUploader)           { gcsUploader = u }
func GetGCS() *helpers.GCSUploader            { return gcsUploader }
func SetJWT(m *helpers.JWTManager)            { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager == nil {
		c := GetConfig()
		jwtManager = helpers.NewJWTManager(c.JWTSecret, c.JWTPreviousSecrets, c.JWTTTL)
	}
	return jwtManager
}
func SetHasher(h *helpers.PasswordHasher) { hasher = h }
func GetHasher() *helpers.PasswordHasher {
	if hasher == nil {
		hasher = helpers.NewPasswordHasher(GetConfig().BcryptCost)
	}
	return hasher
}

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

// Reset clears every singleton; used by tests.
func Reset() {
	cfg, logger, userRepo, redisClient, gcsUploader = nil, nil, nil, nil, nil
	jwtManager, hasher, rabbitPub = nil, nil, nil
}
