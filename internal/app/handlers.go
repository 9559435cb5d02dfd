package app

import (
	"gorm.io/gorm"

	httpserver "github.com/yungbote/perfoevolution-backend/internal/http"
	"github.com/yungbote/perfoevolution-backend/internal/http/handlers"
	"github.com/yungbote/perfoevolution-backend/internal/http/middleware"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
)

func wireRouterConfig(db *gorm.DB, log *logger.Logger, s Services) httpserver.RouterConfig {
	return httpserver.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.NewAuthMiddleware(log, s.Auth0),

		AuthHandler:     handlers.NewAuthHandler(log, s.Users),
		UserHandler:     handlers.NewUserHandler(log, s.Users, s.Subscriptions, s.Entitlements),
		CheckoutHandler: handlers.NewCheckoutHandler(log, s.Users, s.Checkout, s.Reconciler, s.Stripe),
		CoachHandler:    handlers.NewCoachHandler(log, s.Users, s.Coach),
		ProgramHandler:  handlers.NewProgramHandler(log, s.Users, s.Programs),
		HealthHandler:   handlers.NewHealthHandler(db, log),
	}
}
