package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perfoevolution-backend/internal/http/response"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/services"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

type UserHandler struct {
	log           *logger.Logger
	users         services.UserService
	subscriptions services.SubscriptionService
	entitlements  services.EntitlementService
}

func NewUserHandler(
	baseLog *logger.Logger,
	users services.UserService,
	subscriptions services.SubscriptionService,
	entitlements services.EntitlementService,
) *UserHandler {
	return &UserHandler{
		log:           baseLog.With("handler", "UserHandler"),
		users:         users,
		subscriptions: subscriptions,
		entitlements:  entitlements,
	}
}

// GET /is-coach/
func (h *UserHandler) IsCoach(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"is_coach": user.Role == types.RoleCoach})
}

// GET /user-subscription/
func (h *UserHandler) GetSubscription(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	plan, err := h.subscriptions.ActivePlan(c.Request.Context(), user.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	history, err := h.subscriptions.History(c.Request.Context(), user.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plan": plan, "subscriptions": history})
}

// GET /user-addons/
func (h *UserHandler) GetAddOns(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	summary, err := h.entitlements.ActiveSummary(c.Request.Context(), user.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"add_ons": summary})
}

// POST /set-username/
func (h *UserHandler) SetUsername(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}

	var body struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("username required"))
		return
	}

	info, err := h.users.UpdateDetail(c.Request.Context(), user.ID, services.UserDetailUpdate{Username: &body.Username})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, info)
}

// POST /save-profile/
func (h *UserHandler) SaveProfile(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}

	var profile services.ClientProfileUpdate
	if err := c.ShouldBindJSON(&profile); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("malformed body"))
		return
	}

	info, err := h.users.UpdateDetail(c.Request.Context(), user.ID, services.UserDetailUpdate{Profile: profile})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, info)
}

// POST /downgrade-plan/
//
// Only moves the cached plan; running periods lapse on their own.
func (h *UserHandler) DowngradePlan(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}

	var body struct {
		TargetPlan string `json:"target_plan"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.TargetPlan == "" {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("target_plan required"))
		return
	}

	if err := h.subscriptions.Downgrade(c.Request.Context(), user.ID, body.TargetPlan); err != nil {
		response.RespondServiceError(c, err)
		return
	}

	info, err := h.users.GetInfo(c.Request.Context(), user.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, info)
}

// GET /user-info/
func (h *UserHandler) GetInfo(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	info, err := h.users.GetInfo(c.Request.Context(), user.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, info)
}

// PATCH /user-detail/
func (h *UserHandler) UpdateDetail(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}

	var update services.UserDetailUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("malformed body"))
		return
	}

	info, err := h.users.UpdateDetail(c.Request.Context(), user.ID, update)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, info)
}

// DELETE /user-detail/
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	if err := h.users.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
