package memory

import (
	"context"
	"testing"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	session := app.NewSession("s1", "u1", sampleQuiz(), nil, nil, nil)
	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got, ok := store.Get(ctx, "s1"); !ok || got != session {
		t.Fatalf("expected session present")
	}

	store.Delete(ctx, "s1")
	if _, ok := store.Get(ctx, "s1"); ok || store.Len() != 0 {
		t.Fatalf("expected session removed")
	}
}

func TestAttemptStore(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	attempts := []domain.Attempt{
		{ID: "a1", QuizID: "quiz-1", UserID: "u1", StartedAt: base},
		{ID: "a2", QuizID: "quiz-1", UserID: "u2", StartedAt: base.Add(time.Hour)},
		{ID: "a3", QuizID: "quiz-2", UserID: "u1", StartedAt: base.Add(2 * time.Hour)},
	}
	for _, a := range attempts {
		if err := store.SaveAttempt(ctx, a); err != nil {
			t.Fatalf("save %s: %v", a.ID, err)
		}
	}
	if err := store.SaveAttempt(ctx, attempts[0]); err == nil {
		t.Fatalf("expected duplicate save to fail")
	}

	byQuiz, _ := store.ListAttempts(ctx, app.AttemptFilter{QuizID: "quiz-1"})
	if len(byQuiz) != 2 || byQuiz[0].ID != "a2" {
		t.Fatalf("expected newest first for quiz-1, got %+v", byQuiz)
	}
	byUser, _ := store.ListAttempts(ctx, app.AttemptFilter{UserID: "u1"})
	if len(byUser) != 2 || byUser[0].ID != "a3" {
		t.Fatalf("unexpected user attempts %+v", byUser)
	}

	updated := attempts[0]
	updated.Score = 5
	if err := store.UpdateAttempt(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.GetAttempt(ctx, "a1")
	if err != nil || got.Score != 5 {
		t.Fatalf("update not visible: %+v %v", got, err)
	}
	if _, err := store.GetAttempt(ctx, "zz"); err == nil {
		t.Fatalf("expected not found")
	}
}
