package router

import (
	appuser "github.com/oksasatya/go-user-accounts/internal/application"
	"github.com/oksasatya/go-user-accounts/internal/container"
	"github.com/oksasatya/go-user-accounts/internal/infrastructure/redisstore"
	handlers "github.com/oksasatya/go-user-accounts/internal/interface/http"
	"github.com/oksasatya/go-user-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-user-accounts/internal/router/modules"
	"github.com/oksasatya/go-user-accounts/pkg/mailer"
)

type UserModuleDeps struct {
	Service *appuser.Service
	Handler *handlers.UserHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	service := appuser.NewService(
		container.GetUserRepo(),
		container.GetHasher(),
		container.GetJWT(),
		logger,
	)
	// optional collaborators are only set when configured, so the
	// interfaces stay nil rather than holding typed nil pointers
	if rdb := container.GetRedis(); rdb != nil {
		service.Denylist = redisstore.NewTokenDenylist(rdb)
	}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		service.Notifier = mailer.NewVerificationPublisher(pub, cfg.AppName, cfg.VerifyEmailURL)
	}
	if gcs := container.GetGCS(); gcs != nil {
		service.Storage = gcs
	}

	return UserModuleDeps{
		Service: service,
		Handler: handlers.NewUserHandler(service, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	userDeps := buildUserDeps()
	auth := middleware.Auth(userDeps.Service, logger)
	admin := middleware.RequireAdmin(userDeps.Service, logger)

	metrics := middleware.NewHTTPMetrics()
	r.Use(metrics.Middleware())
	r.Add(modules.NewUserModule(userDeps.Handler, auth, admin, cfg.ProtectRoutes()))
	r.Add(modules.NewSystemModule(handlers.NewSystemHandler(container.GetUserRepo(), logger), metrics.Handler(), cfg.DebugMetricsEnabled))
}
