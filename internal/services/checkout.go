package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yungbote/perfoevolution-backend/internal/platform/envutil"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/platform/stripepay"
	"github.com/yungbote/perfoevolution-backend/internal/pricing"
)

// CheckoutService builds Stripe checkout sessions for plans and add-ons.
// The caller identity travels in session metadata so the webhook can land
// the payment on the right account even if the email changes mid-checkout.
type CheckoutService interface {
	CreatePlanCheckout(ctx context.Context, auth0ID, email, plan string) (string, error)
	CreateAddOnCheckout(ctx context.Context, auth0ID, email, addonType string, quantity int) (string, error)
}

type checkoutService struct {
	stripe     stripepay.Client
	catalog    *pricing.Catalog
	successURL string
	cancelURL  string
	log        *logger.Logger
}

func NewCheckoutService(stripe stripepay.Client, catalog *pricing.Catalog, baseLog *logger.Logger) CheckoutService {
	return &checkoutService{
		stripe:     stripe,
		catalog:    catalog,
		successURL: envutil.String("CHECKOUT_SUCCESS_URL", "http://localhost:3000/payment-success"),
		cancelURL:  envutil.String("CHECKOUT_CANCEL_URL", "http://localhost:3000/payment-cancelled"),
		log:        baseLog.With("service", "CheckoutService"),
	}
}

func (s *checkoutService) CreatePlanCheckout(ctx context.Context, auth0ID, email, plan string) (string, error) {
	item, ok := s.catalog.Plan(plan)
	if !ok {
		return "", ErrInvalidTarget
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, stripepay.CheckoutInput{
		ProductName:   item.Name,
		UnitAmount:    item.UnitAmount,
		Currency:      item.Currency,
		Quantity:      1,
		CustomerEmail: email,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
		Metadata: map[string]string{
			"auth0_id": auth0ID,
			"plan":     plan,
		},
	})
	if err != nil {
		return "", ErrUpstream
	}

	s.log.Info("Plan checkout created", "auth0_id", auth0ID, "plan", plan, "session_id", session.ID)
	return session.URL, nil
}

func (s *checkoutService) CreateAddOnCheckout(ctx context.Context, auth0ID, email, addonType string, quantity int) (string, error) {
	item, ok := s.catalog.AddOn(addonType)
	if !ok {
		return "", ErrInvalidTarget
	}
	if quantity <= 0 {
		quantity = 1
	}

	// The webhook reads the cart back from metadata, so the add-on map
	// travels as a JSON string.
	cart, err := json.Marshal(map[string]int{addonType: quantity})
	if err != nil {
		return "", errors.Join(ErrValidation, err)
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, stripepay.CheckoutInput{
		ProductName:   item.Name,
		UnitAmount:    item.UnitAmount,
		Currency:      item.Currency,
		Quantity:      int64(quantity),
		CustomerEmail: email,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
		Metadata: map[string]string{
			"auth0_id": auth0ID,
			"add_ons":  string(cart),
		},
	})
	if err != nil {
		return "", ErrUpstream
	}

	s.log.Info("Add-on checkout created",
		"auth0_id", auth0ID,
		"addon_type", addonType,
		"quantity", quantity,
		"session_id", session.ID,
	)
	return session.URL, nil
}
