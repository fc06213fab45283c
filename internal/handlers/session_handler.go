package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/assessment-session-service/internal/services"
	"github.com/SAP-F-2025/assessment-session-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OpenSessionRequest struct {
	DefinitionID uint `json:"definition_id" binding:"required"`
}

type RecordAnswerRequest struct {
	Value json.RawMessage `json:"value"`
}

type ToggleOptionRequest struct {
	Index *int `json:"index" binding:"required"`
}

type RecordCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type SessionHandler struct {
	BaseHandler
	sessions *services.SessionManager
	exporter *services.ResultExporter
}

func NewSessionHandler(sessions *services.SessionManager, exporter *services.ResultExporter, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
		exporter:    exporter,
	}
}

// OpenSession opens a timed session. Locked outcomes are still 201 with the
// reason in the snapshot.
// @Router /sessions [post]
func (h *SessionHandler) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	session, err := h.sessions.Open(c.Request.Context(), req.DefinitionID, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	snapshot := session.Snapshot()
	h.LogInfo(c, "Session opened", "session_id", snapshot.SessionID, "state", snapshot.State)
	c.JSON(http.StatusCreated, snapshot)
}

// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// @Router /sessions/{id} [delete]
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	if err := h.sessions.Close(id, currentUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /sessions/{id}/answers/{question_id} [put]
func (h *SessionHandler) RecordAnswer(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	var req RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	if err := session.RecordRawAnswer(c.Param("question_id"), req.Value); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// @Router /sessions/{id}/answers/{question_id}/toggle [post]
func (h *SessionHandler) ToggleOption(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	var req ToggleOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	if err := session.ToggleOption(c.Param("question_id"), *req.Index); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// @Router /sessions/{id}/code [put]
func (h *SessionHandler) RecordCode(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	var req RecordCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	if err := session.RecordCode(req.Code, req.Language); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// SubmitSession submits now. A failed submission still answers 200: the snapshot carries
// SUBMIT_ERROR with last_error and retryable.
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	h.respondAfterSubmit(c, session, session.ForceSubmit(c.Request.Context()))
}

// @Router /sessions/{id}/retry [post]
func (h *SessionHandler) RetrySession(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	h.respondAfterSubmit(c, session, session.Retry(c.Request.Context()))
}

// @Router /sessions/{id}/result/export [get]
func (h *SessionHandler) ExportResult(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	data, err := h.exporter.ExportSession(session.Snapshot())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("session-%s-result.xlsx", session.ID())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *SessionHandler) respondAfterSubmit(c *gin.Context, session *services.SessionController, err error) {
	switch {
	case err == nil, services.IsSubmitError(err):
		c.JSON(http.StatusOK, session.Snapshot())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The submission continues in the background; clients poll GET /sessions/:id.
		c.JSON(http.StatusAccepted, session.Snapshot())
	default:
		h.handleServiceError(c, err)
	}
}

func (h *SessionHandler) lookup(c *gin.Context) (*services.SessionController, bool) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return nil, false
	}
	session, err := h.sessions.Get(id, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return nil, false
	}
	return session, true
}
