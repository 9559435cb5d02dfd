package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/perfoevolution-backend/internal/http/response"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/services"
)

type ProgramHandler struct {
	log      *logger.Logger
	users    services.UserService
	programs services.ProgramService
}

func NewProgramHandler(baseLog *logger.Logger, users services.UserService, programs services.ProgramService) *ProgramHandler {
	return &ProgramHandler{
		log:      baseLog.With("handler", "ProgramHandler"),
		users:    users,
		programs: programs,
	}
}

// POST /api/program/generate
func (h *ProgramHandler) Generate(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	program, err := h.programs.GenerateStructured(c.Request.Context(), user.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"program": program})
}

// POST /api/program/generate-markdown
func (h *ProgramHandler) GenerateMarkdown(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	markdown, err := h.programs.GenerateMarkdown(c.Request.Context(), user.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"markdown": markdown})
}

// GET /api/program/active
func (h *ProgramHandler) Active(c *gin.Context) {
	user, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	program, err := h.programs.ActiveProgram(c.Request.Context(), user.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"program": program})
}
