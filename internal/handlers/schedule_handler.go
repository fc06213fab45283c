package handlers

import (
	"net/http"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/services"
	"github.com/SAP-F-2025/assessment-session-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type UpsertScheduleRequest struct {
	OpenAt  *time.Time `json:"open_at"`
	CloseAt *time.Time `json:"close_at"`
}

type ScheduleHandler struct {
	BaseHandler
	schedules *services.ScheduleService
	gate      *services.ScheduleGate
}

func NewScheduleHandler(schedules *services.ScheduleService, gate *services.ScheduleGate, logger utils.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		BaseHandler: NewBaseHandler(logger),
		schedules:   schedules,
		gate:        gate,
	}
}

// @Router /schedules/{owner_type}/{owner_id} [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	ownerType, ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	window, err := h.schedules.Get(c.Request.Context(), ownerType, ownerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, window)
}

// @Router /schedules/{owner_type}/{owner_id} [put]
func (h *ScheduleHandler) UpsertSchedule(c *gin.Context) {
	ownerType, ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var req UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	window, err := h.schedules.Upsert(c.Request.Context(), &models.ScheduleWindow{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		OpenAt:    req.OpenAt,
		CloseAt:   req.CloseAt,
	}, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Schedule saved", "owner_type", ownerType, "owner_id", ownerID)
	c.JSON(http.StatusOK, window)
}

// @Router /schedules/{owner_type}/{owner_id} [delete]
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	ownerType, ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	if err := h.schedules.Delete(c.Request.Context(), ownerType, ownerID, currentUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckAccess evaluates the owner's window now.
// @Router /schedules/{owner_type}/{owner_id}/access [get]
func (h *ScheduleHandler) CheckAccess(c *gin.Context) {
	ownerType, ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.gate.CheckAccess(c.Request.Context(), ownerType, ownerID, time.Now()))
}

func (h *ScheduleHandler) owner(c *gin.Context) (models.ScheduleOwnerType, uint, bool) {
	ownerType := models.ScheduleOwnerType(c.Param("owner_type"))
	switch ownerType {
	case models.OwnerCourse, models.OwnerQuiz, models.OwnerCodeExercise:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid owner_type",
			Details: "must be one of course, quiz, code_exercise",
		})
		return "", 0, false
	}

	ownerID, ok := ParseUintParam(c, "owner_id")
	return ownerType, ownerID, ok
}
