package amqp

import (
	"context"
	"testing"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
)

func TestDisabledPublisherDropsEvents(t *testing.T) {
	p, err := NewPublisher("", "quiz.events")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	if p.Enabled() {
		t.Fatalf("publisher without url must be disabled")
	}
	event := app.AttemptEvent{Kind: app.EventAttemptCompleted, Attempt: domain.Attempt{ID: "a1"}}
	if err := p.PublishAttempt(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPublisherRejectsBadURL(t *testing.T) {
	if _, err := NewPublisher("not-a-url", "quiz.events"); err == nil {
		t.Fatalf("expected dial error")
	}
}
