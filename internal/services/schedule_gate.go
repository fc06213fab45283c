package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/config"
	"github.com/SAP-F-2025/assessment-session-service/internal/events"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
)

type AccessStatus string

const (
	AccessOpen    AccessStatus = "OPEN"
	AccessNotOpen AccessStatus = "NOT_OPEN"
	AccessClosed  AccessStatus = "CLOSED"
	AccessError   AccessStatus = "ERROR"
)

// AccessDecision is the outcome of a gate check. Degraded is set when the window could not
// be read and the fail-open policy granted access anyway.
type AccessDecision struct {
	Status   AccessStatus `json:"status"`
	Message  string       `json:"message,omitempty"`
	Degraded bool         `json:"degraded,omitempty"`
}

func (d AccessDecision) IsOpen() bool {
	return d.Status == AccessOpen
}

// ScheduleGate decides whether an owner's access window currently admits learners.
type ScheduleGate struct {
	source    ScheduleSource
	failOpen  bool
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewScheduleGate(source ScheduleSource, failurePolicy string, publisher events.EventPublisher, logger *slog.Logger) *ScheduleGate {
	return &ScheduleGate{
		source:    source,
		failOpen:  failurePolicy != config.GatePolicyClosed,
		publisher: publisher,
		logger:    logger.With("component", "schedule_gate"),
	}
}

// CheckAccess applies the window rules for one owner at now.
func (g *ScheduleGate) CheckAccess(ctx context.Context, ownerType models.ScheduleOwnerType, ownerID uint, now time.Time) AccessDecision {
	window, err := g.source.GetSchedule(ctx, ownerType, ownerID)
	if err != nil {
		return g.onLookupFailure(ctx, &GateError{OwnerType: string(ownerType), OwnerID: ownerID, Err: err})
	}
	return Evaluate(window, now)
}

// CheckDefinition checks the assessment's own window and, when it belongs to a course,
// the course window. The first non-open decision wins.
func (g *ScheduleGate) CheckDefinition(ctx context.Context, def *models.AssessmentDefinition, now time.Time) AccessDecision {
	ownerType, ownerID := def.ScheduleOwner()
	decision := g.CheckAccess(ctx, ownerType, ownerID, now)
	if !decision.IsOpen() || def.CourseID == nil {
		return decision
	}

	course := g.CheckAccess(ctx, models.OwnerCourse, *def.CourseID, now)
	if !course.IsOpen() {
		return course
	}
	course.Degraded = course.Degraded || decision.Degraded
	return course
}

func (g *ScheduleGate) onLookupFailure(ctx context.Context, gateErr *GateError) AccessDecision {
	if !g.failOpen {
		g.logger.ErrorContext(ctx, "Schedule lookup failed, denying access",
			"owner_type", gateErr.OwnerType,
			"owner_id", gateErr.OwnerID,
			"error", gateErr.Err)
		return AccessDecision{Status: AccessError, Message: "Could not verify the access window. Please try again later."}
	}

	g.logger.WarnContext(ctx, "Schedule lookup failed, granting access",
		"owner_type", gateErr.OwnerType,
		"owner_id", gateErr.OwnerID,
		"error", gateErr.Err)

	if g.publisher != nil {
		event := events.NewGateDegradedEvent(events.GateDegradedEvent{
			OwnerType: gateErr.OwnerType,
			OwnerID:   gateErr.OwnerID,
			Error:     gateErr.Err.Error(),
		})
		if err := g.publisher.PublishSessionEvent(ctx, event); err != nil {
			g.logger.WarnContext(ctx, "Failed to publish gate degraded event", "error", err)
		}
	}
	return AccessDecision{Status: AccessOpen, Degraded: true}
}

// Evaluate applies the window rules: no window is open, before openAt is not yet open,
// at or after closeAt is closed.
func Evaluate(window *models.ScheduleWindow, now time.Time) AccessDecision {
	if window == nil {
		return AccessDecision{Status: AccessOpen}
	}
	if window.OpenAt != nil && now.Before(*window.OpenAt) {
		return AccessDecision{
			Status:  AccessNotOpen,
			Message: fmt.Sprintf("Not open yet. Opens at %s.", window.OpenAt.Format(time.RFC3339)),
		}
	}
	if window.CloseAt != nil && !now.Before(*window.CloseAt) {
		return AccessDecision{
			Status:  AccessClosed,
			Message: fmt.Sprintf("Closed since %s.", window.CloseAt.Format(time.RFC3339)),
		}
	}
	return AccessDecision{Status: AccessOpen}
}
