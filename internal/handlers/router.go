package handlers

import (
	"github.com/SAP-F-2025/assessment-session-service/internal/services"
	"github.com/SAP-F-2025/assessment-session-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	sessionHandler    *SessionHandler
	scheduleHandler   *ScheduleHandler
	assessmentHandler *AssessmentHandler
}

func NewHandlerManager(serviceManager *services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		sessionHandler:  NewSessionHandler(serviceManager.Sessions(), serviceManager.Exporter(), logger),
		scheduleHandler: NewScheduleHandler(serviceManager.Schedules(), serviceManager.Gate(), logger),
		assessmentHandler: NewAssessmentHandler(
			serviceManager.Definitions(),
			serviceManager.Attempts(),
			serviceManager.Quizzes(),
			serviceManager.Code(),
			logger,
		),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1", UserContext())
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.OpenSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.CloseSession)
			sessions.PUT("/:id/answers/:question_id", hm.sessionHandler.RecordAnswer)
			sessions.POST("/:id/answers/:question_id/toggle", hm.sessionHandler.ToggleOption)
			sessions.PUT("/:id/code", hm.sessionHandler.RecordCode)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSession)
			sessions.POST("/:id/retry", hm.sessionHandler.RetrySession)
			sessions.GET("/:id/result/export", hm.sessionHandler.ExportResult)
		}

		schedules := v1.Group("/schedules/:owner_type/:owner_id")
		{
			schedules.GET("", hm.scheduleHandler.GetSchedule)
			schedules.PUT("", hm.scheduleHandler.UpsertSchedule)
			schedules.DELETE("", hm.scheduleHandler.DeleteSchedule)
			schedules.GET("/access", hm.scheduleHandler.CheckAccess)
		}

		assessments := v1.Group("/assessments")
		{
			assessments.POST("", hm.assessmentHandler.CreateAssessment)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.PUT("/:id", hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", hm.assessmentHandler.DeleteAssessment)
			assessments.GET("/:id/attempts/count", hm.assessmentHandler.GetAttemptCount)
		}

		v1.POST("/quizzes/:id/submissions", hm.assessmentHandler.SubmitQuiz)
		v1.POST("/exercises/:id/submissions", hm.assessmentHandler.SubmitCode)
		v1.GET("/submissions/:id", hm.assessmentHandler.GetSubmissionStatus)
	}
}
