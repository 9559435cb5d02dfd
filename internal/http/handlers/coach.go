package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/perfoevolution-backend/internal/http/response"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/services"
)

type CoachHandler struct {
	log   *logger.Logger
	users services.UserService
	coach services.CoachService
}

func NewCoachHandler(baseLog *logger.Logger, users services.UserService, coach services.CoachService) *CoachHandler {
	return &CoachHandler{
		log:   baseLog.With("handler", "CoachHandler"),
		users: users,
		coach: coach,
	}
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// GET /coach/clients
func (h *CoachHandler) ListClients(c *gin.Context) {
	coach, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	clients, err := h.coach.ListClients(c.Request.Context(), coach.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"clients": clients})
}

// PATCH /coach/clients/:id
func (h *CoachHandler) UpdateClientProfile(c *gin.Context) {
	coach, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var update services.ClientProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("malformed body"))
		return
	}

	profile, err := h.coach.UpdateClientProfile(c.Request.Context(), coach.ID, clientID, update)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

// DELETE /coach/clients/:id
func (h *CoachHandler) DeleteClient(c *gin.Context) {
	coach, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.coach.DeleteClient(c.Request.Context(), coach.ID, clientID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// GET /coach/training
func (h *CoachHandler) ListTraining(c *gin.Context) {
	coach, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	rows, err := h.coach.ListTraining(c.Request.Context(), coach.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"training": rows})
}

// PATCH /coach/training/:id
func (h *CoachHandler) UpdateTraining(c *gin.Context) {
	coach, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	progressID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var update services.TrainingUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("malformed body"))
		return
	}

	result, err := h.coach.UpdateTraining(c.Request.Context(), coach.ID, progressID, update)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"training":           result.Row,
		"remaining_quantity": result.RemainingQuantity,
	})
}

// GET /coach/bookings
func (h *CoachHandler) ListBookings(c *gin.Context) {
	coach, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	rows, err := h.coach.ListBookings(c.Request.Context(), coach.ID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bookings": rows})
}

// PATCH /coach/bookings/:id
func (h *CoachHandler) UpdateBooking(c *gin.Context) {
	coach, ok := callerAccount(c, h.users)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var update services.BookingUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_failed", errors.New("malformed body"))
		return
	}

	result, err := h.coach.UpdateBooking(c.Request.Context(), coach.ID, bookingID, update)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"booking":            result.Row,
		"remaining_quantity": result.RemainingQuantity,
	})
}
