package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perfoevolution-backend/internal/http/response"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/services"
)

type AuthHandler struct {
	log   *logger.Logger
	users services.UserService
}

func NewAuthHandler(baseLog *logger.Logger, users services.UserService) *AuthHandler {
	return &AuthHandler{
		log:   baseLog.With("handler", "AuthHandler"),
		users: users,
	}
}

// POST /auth0-login/
//
// The frontend calls this right after the Auth0 redirect. The account is
// created on first login; later calls keep email and username in sync.
func (h *AuthHandler) Login(c *gin.Context) {
	id, ok := callerIdentity(c)
	if !ok {
		return
	}

	var body struct {
		Username string `json:"username"`
	}
	_ = c.ShouldBindJSON(&body)

	username := body.Username
	if username == "" {
		username = id.Name
	}

	user, created, err := h.users.SyncFromAuth0(c.Request.Context(), id.Sub, id.Email, username)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"user": user, "created": created})
}
