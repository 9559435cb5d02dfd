package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/repos"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

// Outcome of applying one webhook event.
const (
	OutcomeApplied         = "applied"
	OutcomeIgnored         = "ignored"
	OutcomeDuplicate       = "duplicate"
	OutcomeUserMissing     = "user_missing"
	OutcomeAlreadyEntitled = "already_entitled"
)

// ReconcilerService turns verified Stripe events into subscription and
// add-on state. A paid session must never be lost, so user resolution
// failures are absorbed as no-ops rather than surfaced as retryable errors.
type ReconcilerService interface {
	ApplyEvent(ctx context.Context, event stripe.Event) (string, error)
}

type reconcilerService struct {
	db            *gorm.DB
	users         repos.UserRepo
	subscriptions SubscriptionService
	entitlements  EntitlementService
	dedup         EventDedup // nil disables replay protection
	log           *logger.Logger
}

func NewReconcilerService(db *gorm.DB, users repos.UserRepo, subscriptions SubscriptionService, entitlements EntitlementService, dedup EventDedup, baseLog *logger.Logger) ReconcilerService {
	return &reconcilerService{
		db:            db,
		users:         users,
		subscriptions: subscriptions,
		entitlements:  entitlements,
		dedup:         dedup,
		log:           baseLog.With("service", "ReconcilerService"),
	}
}

func (s *reconcilerService) ApplyEvent(ctx context.Context, event stripe.Event) (string, error) {
	if event.Type != "checkout.session.completed" {
		return OutcomeIgnored, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", errors.Join(ErrValidation, err)
	}

	if s.dedup != nil {
		fresh, err := s.dedup.MarkIfNew(ctx, event.ID)
		if err != nil {
			// Replay protection is best effort. Reconciliation still
			// runs when Redis is down.
			s.log.Warn("Event dedup unavailable", "event_id", event.ID, "error", err)
		} else if !fresh {
			return OutcomeDuplicate, nil
		}
	}

	user, err := s.resolveUser(ctx, session)
	if err != nil {
		return "", err
	}
	if user == nil {
		s.log.Warn("Completed checkout for unknown user",
			"event_id", event.ID,
			"session_id", session.ID,
		)
		return OutcomeUserMissing, nil
	}

	plan := strings.TrimSpace(session.Metadata["plan"])
	addons, err := parseAddOnQuantities(session.Metadata)
	if err != nil {
		return "", err
	}
	if plan == "" && len(addons) == 0 {
		return "", ErrValidation
	}

	// One session can carry a plan and several add-on types at once.
	// Everything it paid for lands in a single transaction.
	outcome := OutcomeApplied
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if plan != "" {
			if _, err := s.subscriptions.SetPlan(ctx, tx, user.ID, plan, checkoutPlanDuration); err != nil {
				return err
			}
		}

		granted := 0
		ordered := make([]string, 0, len(addons))
		for addonType := range addons {
			ordered = append(ordered, addonType)
		}
		sort.Strings(ordered)
		for _, addonType := range ordered {
			ok, err := s.entitlements.Grant(ctx, tx, user.ID, addonType, addons[addonType], addonCheckoutValidity)
			if err != nil {
				return err
			}
			if ok {
				granted++
			}
		}
		if plan == "" && len(addons) > 0 && granted == 0 {
			outcome = OutcomeAlreadyEntitled
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("Checkout reconciled",
		"event_id", event.ID,
		"user_id", user.ID.String(),
		"outcome", outcome,
	)
	return outcome, nil
}

// parseAddOnQuantities decodes the add_ons metadata value, a JSON object
// mapping add-on type to a positive count. Stripe metadata values are
// strings, so the map travels serialized.
func parseAddOnQuantities(metadata map[string]string) (map[string]int, error) {
	raw := strings.TrimSpace(metadata["add_ons"])
	if raw == "" {
		return nil, nil
	}
	addons := map[string]int{}
	if err := json.Unmarshal([]byte(raw), &addons); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	for addonType, quantity := range addons {
		if quantity <= 0 {
			return nil, errors.Join(ErrValidation, fmt.Errorf("add-on %s has quantity %d", addonType, quantity))
		}
	}
	return addons, nil
}

// resolveUser matches the session to an account by the auth0 subject stored
// in metadata, then by the checkout email. A nil user without error means
// the payment has no account to land on.
func (s *reconcilerService) resolveUser(ctx context.Context, session stripe.CheckoutSession) (*types.User, error) {
	if auth0ID := strings.TrimSpace(session.Metadata["auth0_id"]); auth0ID != "" {
		user, err := s.users.GetByAuth0ID(ctx, nil, auth0ID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(translateDBError(err), ErrNotFound) {
			return nil, translateDBError(err)
		}
	}

	email := ""
	if session.CustomerDetails != nil {
		email = strings.TrimSpace(session.CustomerDetails.Email)
	}
	if email == "" {
		email = strings.TrimSpace(session.CustomerEmail)
	}
	if email != "" {
		user, err := s.users.GetByEmail(ctx, nil, email)
		if err == nil {
			return user, nil
		}
		if !errors.Is(translateDBError(err), ErrNotFound) {
			return nil, translateDBError(err)
		}
	}
	return nil, nil
}
