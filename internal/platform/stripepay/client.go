package stripepay

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
)

// CheckoutInput describes one one-time payment session. Metadata is carried
// through Stripe untouched and comes back on the completed event; the webhook
// reconciler keys entirely off it.
type CheckoutInput struct {
	ProductName   string
	UnitAmount    int64 // minor units
	Currency      string
	Quantity      int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Client wraps the Stripe API surface the backend needs.
type Client interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (CheckoutSession, error)
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

type apiClient struct {
	log           *logger.Logger
	api           *stripeclient.API
	webhookSecret string
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	secretKey := strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY"))
	if secretKey == "" {
		return nil, fmt.Errorf("missing STRIPE_SECRET_KEY")
	}
	webhookSecret := strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET"))
	if webhookSecret == "" {
		return nil, fmt.Errorf("missing STRIPE_WEBHOOK_SECRET")
	}

	api := &stripeclient.API{}
	api.Init(secretKey, nil)

	return &apiClient{
		log:           log.With("service", "StripeClient"),
		api:           api,
		webhookSecret: webhookSecret,
	}, nil
}

func (c *apiClient) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (CheckoutSession, error) {
	var out CheckoutSession

	if strings.TrimSpace(in.ProductName) == "" {
		return out, fmt.Errorf("product name required")
	}
	if in.UnitAmount <= 0 {
		return out, fmt.Errorf("unit amount must be positive")
	}
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(in.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.ProductName),
					},
				},
				Quantity: stripe.Int64(quantity),
			},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}
	params.Context = ctx
	if strings.TrimSpace(in.CustomerEmail) != "" {
		params.CustomerEmail = stripe.String(strings.TrimSpace(in.CustomerEmail))
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		c.log.Error("Stripe checkout session create failed", "error", err)
		return out, err
	}

	out.ID = sess.ID
	out.URL = sess.URL
	return out, nil
}

func (c *apiClient) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
