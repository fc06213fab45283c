package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/services"
	"github.com/SAP-F-2025/assessment-session-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SubmitQuizRequest struct {
	Answers map[string]json.RawMessage `json:"answers"`
}

type SubmitCodeRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"required"`
}

type SubmitCodeResponse struct {
	SubmissionID string `json:"submission_id"`
}

type AttemptCountResponse struct {
	AssessmentID uint `json:"assessment_id"`
	AttemptsUsed int  `json:"attempts_used"`
	MaxAttempts  int  `json:"max_attempts"`
	CanStart     bool `json:"can_start"`
}

// AssessmentHandler serves definitions and the direct submission endpoints.
type AssessmentHandler struct {
	BaseHandler
	definitions *services.DefinitionService
	attempts    *services.AttemptService
	quizzes     *services.QuizSubmissionService
	code        *services.CodeSubmissionService
}

func NewAssessmentHandler(
	definitions *services.DefinitionService,
	attempts *services.AttemptService,
	quizzes *services.QuizSubmissionService,
	code *services.CodeSubmissionService,
	logger utils.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler: NewBaseHandler(logger),
		definitions: definitions,
		attempts:    attempts,
		quizzes:     quizzes,
		code:        code,
	}
}

// ===== DEFINITIONS =====

// CreateAssessment stores a quiz or code-exercise definition
// @Router /assessments [post]
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var def models.AssessmentDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	created, err := h.definitions.CreateDefinition(c.Request.Context(), &def, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetAssessment returns the learner view: no answer keys, no hidden tests
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	def, err := h.definitions.GetDefinition(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, def.PublicView())
}

// @Router /assessments/{id} [put]
func (h *AssessmentHandler) UpdateAssessment(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var def models.AssessmentDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	updated, err := h.definitions.UpdateDefinition(c.Request.Context(), id, &def, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) DeleteAssessment(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.definitions.DeleteDefinition(c.Request.Context(), id, currentUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /assessments/{id}/attempts/count [get]
func (h *AssessmentHandler) GetAttemptCount(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	def, err := h.definitions.GetDefinition(ctx, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	used, err := h.attempts.AttemptCount(ctx, id, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, AttemptCountResponse{
		AssessmentID: id,
		AttemptsUsed: used,
		MaxAttempts:  def.MaxAttempts,
		CanStart:     services.CanStart(def.MaxAttempts, used),
	})
}

// ===== SUBMISSIONS =====

// SubmitQuiz grades a quiz outside of a session
// @Router /quizzes/{id}/submissions [post]
func (h *AssessmentHandler) SubmitQuiz(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	ctx := c.Request.Context()
	def, err := h.definitions.GetDefinition(ctx, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	answers, err := models.DecodeAnswerPayload(def.Questions, req.Answers)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid answers", err, err.Error())
		return
	}

	result, err := h.quizzes.SubmitQuiz(ctx, id, currentUserID(c), answers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// @Router /exercises/{id}/submissions [post]
func (h *AssessmentHandler) SubmitCode(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req SubmitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	submissionID, err := h.code.SubmitCode(c.Request.Context(), id, currentUserID(c), req.Code, req.Language)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, SubmitCodeResponse{SubmissionID: submissionID})
}

// @Router /submissions/{id} [get]
func (h *AssessmentHandler) GetSubmissionStatus(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	record, err := h.code.LearnerSubmissionStatus(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
