package app_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/infra/memory"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) NewTicker(time.Duration) app.Ticker {
	t := &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

func (c *fakeClock) ticker(i int) *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[i]
}

// fakeTicker never fires on its own; tests drive sessions with Tick.
type fakeTicker struct {
	ch      chan time.Time
	once    sync.Once
	stopped chan struct{}
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.once.Do(func() { close(t.stopped) }) }

type countingAttempts struct {
	*memory.AttemptStore
	saves   atomic.Int32
	saveErr error
}

func (c *countingAttempts) SaveAttempt(ctx context.Context, a domain.Attempt) error {
	c.saves.Add(1)
	if c.saveErr != nil {
		return c.saveErr
	}
	return c.AttemptStore.SaveAttempt(ctx, a)
}

type flakySessions struct {
	*memory.SessionStore
	putErr error
}

func (f *flakySessions) Put(ctx context.Context, session *app.Session) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.SessionStore.Put(ctx, session)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []app.AttemptEvent
}

func (p *recordingPublisher) PublishAttempt(_ context.Context, e app.AttemptEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

type harness struct {
	svc      *app.AssessmentService
	quizzes  *memory.QuizStore
	attempts *countingAttempts
	sessions *memory.SessionStore
	clock    *fakeClock
	events   *recordingPublisher
}

func newHarness(t *testing.T, quizzes ...domain.Quiz) *harness {
	t.Helper()
	h := &harness{
		quizzes:  memory.NewQuizStore(quizzes...),
		attempts: &countingAttempts{AttemptStore: memory.NewAttemptStore()},
		sessions: memory.NewSessionStore(),
		clock:    newFakeClock(),
		events:   &recordingPublisher{},
	}
	var seq atomic.Int32
	h.svc = app.NewAssessmentService(
		memory.NewQuizRepository(h.quizzes, time.Minute), h.quizzes, h.attempts, h.sessions,
		app.WithClock(h.clock),
		app.WithPublisher(h.events),
		app.WithIDGenerator(func() string { return fmt.Sprintf("s%d", seq.Add(1)) }),
	)
	return h
}

func settings(mut func(*domain.Settings)) domain.Settings {
	s := domain.DefaultSettings()
	if mut != nil {
		mut(&s)
	}
	return s
}

func publishedQuiz(id string, s domain.Settings) domain.Quiz {
	return domain.Quiz{
		ID:       id,
		Title:    "Numbers",
		Subject:  "math",
		Status:   domain.QuizPublished,
		Settings: s,
		Questions: domain.Questions{
			domain.MultipleChoice{
				QuestionBase:  domain.QuestionBase{ID: "q1", Prompt: "2 + 2?", Points: 1, Topic: "arithmetic"},
				Options:       []domain.Option{{ID: "a", Text: "3"}, {ID: "b", Text: "4"}},
				CorrectAnswer: "b",
			},
			domain.TrueFalse{
				QuestionBase:  domain.QuestionBase{ID: "q2", Prompt: "Zero is even", Points: 2, Topic: "parity"},
				CorrectAnswer: true,
			},
		},
	}
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
