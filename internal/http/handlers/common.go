package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perfoevolution-backend/internal/http/response"
	"github.com/yungbote/perfoevolution-backend/internal/platform/ctxutil"
	"github.com/yungbote/perfoevolution-backend/internal/services"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

// callerIdentity returns the verified Auth0 identity or writes a 401.
func callerIdentity(c *gin.Context) (*ctxutil.Identity, bool) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if id == nil || id.Sub == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing identity"))
		return nil, false
	}
	return id, true
}

// callerAccount resolves the verified identity to its account row or writes
// the mapped error.
func callerAccount(c *gin.Context, users services.UserService) (*types.User, bool) {
	id, ok := callerIdentity(c)
	if !ok {
		return nil, false
	}
	user, err := users.GetByAuth0ID(c.Request.Context(), id.Sub)
	if err != nil {
		response.RespondServiceError(c, err)
		return nil, false
	}
	return user, true
}
