package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMockEventPublisher(t *testing.T) {
	pub := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	require.NoError(t, pub.PublishSessionEvent(ctx, NewAttemptStartedEvent(AttemptStartedEvent{SessionID: "s1", AssessmentID: 3})))
	require.NoError(t, pub.PublishSessionEvent(ctx, NewAttemptGradedEvent(AttemptGradedEvent{SessionID: "s1", Correct: 2, Total: 3})))

	assert.Len(t, pub.GetPublishedEvents(), 2)
	graded := pub.EventsOfType(EventAttemptGraded)
	require.Len(t, graded, 1)
	assert.Equal(t, eventSource, graded[0].Source)
	assert.NotEmpty(t, graded[0].ID)

	pub.ClearEvents()
	assert.Empty(t, pub.GetPublishedEvents())
}

func TestGenerateEventID_Unique(t *testing.T) {
	assert.NotEqual(t, GenerateEventID(), GenerateEventID())
}

func TestChannelEventPublisher_Delivers(t *testing.T) {
	pub, pubSub := NewChannelEventPublisher(PublisherConfig{TopicName: "sessions", Logger: testLogger()})
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "sessions")
	require.NoError(t, err)

	event := NewSubmissionTimedOutEvent(SubmissionTimedOutEvent{SubmissionID: "sub-1", Attempts: 31, LastStatus: "Judging"})
	require.NoError(t, pub.PublishSessionEvent(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(EventSubmissionTimedOut), msg.Metadata.Get("event_type"))

		var decoded SessionEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventSubmissionTimedOut, decoded.Type)
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}
