package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perfoevolution-backend/internal/http/response"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/platform/stripepay"
	"github.com/yungbote/perfoevolution-backend/internal/services"
)

type CheckoutHandler struct {
	log        *logger.Logger
	users      services.UserService
	checkout   services.CheckoutService
	reconciler services.ReconcilerService
	stripe     stripepay.Client
}

func NewCheckoutHandler(
	baseLog *logger.Logger,
	users services.UserService,
	checkout services.CheckoutService,
	reconciler services.ReconcilerService,
	stripe stripepay.Client,
) *CheckoutHandler {
	return &CheckoutHandler{
		log:        baseLog.With("handler", "CheckoutHandler"),
		users:      users,
		checkout:   checkout,
		reconciler: reconciler,
		stripe:     stripe,
	}
}

// POST /create-checkout-session/
func (h *CheckoutHandler) CreatePlanSession(c *gin.Context) {
	id, ok := callerIdentity(c)
	if !ok {
		return
	}

	var body struct {
		Plan string `json:"plan"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Plan == "" {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("plan required"))
		return
	}

	url, err := h.checkout.CreatePlanCheckout(c.Request.Context(), id.Sub, id.Email, body.Plan)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}

// POST /create-addon-session/
func (h *CheckoutHandler) CreateAddOnSession(c *gin.Context) {
	id, ok := callerIdentity(c)
	if !ok {
		return
	}

	var body struct {
		AddonType string `json:"addon_type"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.AddonType == "" {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("addon_type required"))
		return
	}

	url, err := h.checkout.CreateAddOnCheckout(c.Request.Context(), id.Sub, id.Email, body.AddonType, body.Quantity)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}

// POST /stripe_webhook
//
// Signature verification happens against the raw body before any parsing.
// Unresolvable users still get a 200 so Stripe stops redelivering; the
// mismatch is logged instead.
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("unreadable body"))
		return
	}

	event, err := h.stripe.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn("Webhook signature verification failed", "error", err)
		response.RespondError(c, http.StatusBadRequest, "invalid_signature", errors.New("signature verification failed"))
		return
	}

	outcome, err := h.reconciler.ApplyEvent(c.Request.Context(), event)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": outcome})
}
