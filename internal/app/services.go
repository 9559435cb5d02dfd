package app

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/gemini"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/platform/stripepay"
	"github.com/yungbote/perfoevolution-backend/internal/pricing"
	"github.com/yungbote/perfoevolution-backend/internal/services"
)

type Services struct {
	Users         services.UserService
	Subscriptions services.SubscriptionService
	Entitlements  services.EntitlementService
	Coach         services.CoachService
	Checkout      services.CheckoutService
	Reconciler    services.ReconcilerService
	Programs      services.ProgramService
	Auth0         services.Auth0Verifier
	Stripe        stripepay.Client
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	stripe, err := stripepay.NewClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init stripe client: %w", err)
	}

	ai, err := gemini.NewClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init gemini client: %w", err)
	}

	verifier, err := services.NewAuth0Verifier(&http.Client{})
	if err != nil {
		return Services{}, fmt.Errorf("init auth0 verifier: %w", err)
	}

	catalog := pricing.Default()
	if cfg.PricingConfigPath != "" {
		catalog, err = pricing.Load(cfg.PricingConfigPath)
		if err != nil {
			return Services{}, fmt.Errorf("load pricing catalog: %w", err)
		}
	}

	var dedup services.EventDedup
	if cfg.EventDedupEnabled {
		dedup, err = services.NewRedisEventDedup(log)
		if err != nil {
			// Dedup is best effort. Reconciliation stays idempotent
			// without it, so a missing Redis never blocks startup.
			log.Warn("Stripe event dedup disabled, redis unavailable", "error", err)
			dedup = nil
		}
	}

	subscriptions := services.NewSubscriptionService(db, r.Users, r.Subscriptions, log)
	entitlements := services.NewEntitlementService(db, r.Users, r.Subscriptions, r.AddOns, log)
	coach := services.NewCoachService(db, r.Users, r.Profiles, subscriptions, entitlements, r.Training, r.Bookings, log)
	entitlements.SetGrantHook(coach.EnsureWorkflowForLot)

	users := services.NewUserService(db, r.Users, r.Profiles, r.Subscriptions, subscriptions, entitlements, log)
	checkout := services.NewCheckoutService(stripe, catalog, log)
	reconciler := services.NewReconcilerService(db, r.Users, subscriptions, entitlements, dedup, log)
	programs := services.NewProgramService(db, r.Users, r.Profiles, r.Programs, ai, log)

	return Services{
		Users:         users,
		Subscriptions: subscriptions,
		Entitlements:  entitlements,
		Coach:         coach,
		Checkout:      checkout,
		Reconciler:    reconciler,
		Programs:      programs,
		Auth0:         verifier,
		Stripe:        stripe,
	}, nil
}
