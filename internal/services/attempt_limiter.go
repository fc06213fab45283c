package services

import (
	"context"
	"fmt"
)

// CanStart reports whether another attempt is permitted. A maxAttempts of 0 is unlimited.
func CanStart(maxAttempts, attemptsUsed int) bool {
	if maxAttempts == 0 {
		return true
	}
	return attemptsUsed < maxAttempts
}

// AttemptLimiter re-reads the authoritative attempt count before deciding.
type AttemptLimiter struct {
	counter AttemptCounter
}

func NewAttemptLimiter(counter AttemptCounter) *AttemptLimiter {
	return &AttemptLimiter{counter: counter}
}

// Check returns whether the learner may start or submit another attempt, and how many
// attempts were already used.
func (l *AttemptLimiter) Check(ctx context.Context, assessmentID uint, learnerID string, maxAttempts int) (bool, int, error) {
	used, err := l.counter.AttemptCount(ctx, assessmentID, learnerID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return CanStart(maxAttempts, used), used, nil
}
