package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"quiz-engine/internal/analytics"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/scoring"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizStatsRecorder folds a scored attempt into a quiz's cached stats.
type QuizStatsRecorder interface {
	RecordAttemptStats(ctx context.Context, quizID string, percentage, timeSpent int) error
}

// AttemptFilter narrows ListAttempts. Empty fields match everything.
type AttemptFilter struct {
	QuizID string
	UserID string
}

// AttemptStore persists finished attempts. ListAttempts returns newest first.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) error
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	ListAttempts(ctx context.Context, filter AttemptFilter) ([]domain.Attempt, error)
	UpdateAttempt(ctx context.Context, attempt domain.Attempt) error
}

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, bool)
	Delete(ctx context.Context, sessionID string)
}

// Attempt event kinds, also used as message routing keys.
const (
	EventAttemptCompleted = "attempt.completed"
	EventAttemptTimedOut  = "attempt.timed_out"
	EventAttemptAbandoned = "attempt.abandoned"
	EventAttemptGraded    = "attempt.graded"
)

// AttemptEvent announces a change to an attempt.
type AttemptEvent struct {
	Kind    string         `json:"kind"`
	Attempt domain.Attempt `json:"attempt"`
}

// AttemptPublisher fans attempt events out to other systems.
type AttemptPublisher interface {
	PublishAttempt(ctx context.Context, event AttemptEvent) error
}

// AssessmentService owns live sessions and connects them to storage and
// analytics.
type AssessmentService struct {
	quizzes   QuizRepository
	stats     QuizStatsRecorder
	attempts  AttemptStore
	sessions  SessionRepository
	publisher AttemptPublisher
	engine    *scoring.Engine
	clock     Clock
	newID     func() string
}

// ServiceOption customises an AssessmentService.
type ServiceOption func(*AssessmentService)

func WithEngine(e *scoring.Engine) ServiceOption    { return func(s *AssessmentService) { s.engine = e } }
func WithClock(c Clock) ServiceOption               { return func(s *AssessmentService) { s.clock = c } }
func WithPublisher(p AttemptPublisher) ServiceOption { return func(s *AssessmentService) { s.publisher = p } }

// WithIDGenerator is meant for tests that need predictable session ids.
func WithIDGenerator(f func() string) ServiceOption {
	return func(s *AssessmentService) { s.newID = f }
}

func NewAssessmentService(quizzes QuizRepository, stats QuizStatsRecorder, attempts AttemptStore, sessions SessionRepository, opts ...ServiceOption) *AssessmentService {
	s := &AssessmentService{
		quizzes:  quizzes,
		stats:    stats,
		attempts: attempts,
		sessions: sessions,
		engine:   scoring.NewEngine(),
		clock:    SystemClock{},
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StartSession begins a new attempt by userID on a published quiz.
func (s *AssessmentService) StartSession(ctx context.Context, quizID, userID string) (*Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != domain.QuizPublished {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuizNotPublished, quizID)
	}
	if err := s.checkAttemptLimits(ctx, quiz, userID); err != nil {
		return nil, err
	}

	// Stored before it starts, so a failed write leaves no attempt behind.
	session := NewSession(s.newID(), userID, quiz, s.engine, s.clock, s.persist)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if err := session.Start(); err != nil {
		s.sessions.Delete(ctx, session.ID())
		return nil, err
	}
	return session, nil
}

func (s *AssessmentService) checkAttemptLimits(ctx context.Context, quiz domain.Quiz, userID string) error {
	if quiz.Settings.MaxAttempts == 0 && quiz.Settings.AllowRetake {
		return nil
	}
	prior, err := s.attempts.ListAttempts(ctx, AttemptFilter{QuizID: quiz.ID, UserID: userID})
	if err != nil {
		return err
	}
	if max := quiz.Settings.MaxAttempts; max > 0 && len(prior) >= max {
		return fmt.Errorf("%w: %d of %d used", domain.ErrMaxAttemptsReached, len(prior), max)
	}
	if !quiz.Settings.AllowRetake {
		for _, a := range prior {
			if a.Status.Scored() {
				return domain.ErrRetakeNotAllowed
			}
		}
	}
	return nil
}

// persist is the hand-off every session makes once it finishes.
func (s *AssessmentService) persist(ctx context.Context, attempt domain.Attempt) error {
	if err := s.attempts.SaveAttempt(ctx, attempt); err != nil {
		return fmt.Errorf("save attempt %s: %w", attempt.ID, err)
	}
	if attempt.Status.Scored() {
		if err := s.stats.RecordAttemptStats(ctx, attempt.QuizID, attempt.Percentage, attempt.TimeSpent); err != nil {
			return fmt.Errorf("record stats for quiz %s: %w", attempt.QuizID, err)
		}
	}
	s.sessions.Delete(ctx, attempt.ID)
	s.publish(ctx, eventKind(attempt.Status), attempt)
	return nil
}

func (s *AssessmentService) publish(ctx context.Context, kind string, attempt domain.Attempt) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAttempt(ctx, AttemptEvent{Kind: kind, Attempt: attempt}); err != nil {
		log.Printf("publish %s for attempt %s: %v", kind, attempt.ID, err)
	}
}

func eventKind(status domain.AttemptStatus) string {
	switch status {
	case domain.AttemptTimedOut:
		return EventAttemptTimedOut
	case domain.AttemptAbandoned:
		return EventAttemptAbandoned
	}
	return EventAttemptCompleted
}

func (s *AssessmentService) session(ctx context.Context, sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// do runs fn on the session and returns the resulting view.
func (s *AssessmentService) do(ctx context.Context, sessionID string, fn func(*Session) error) (SessionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := fn(session); err != nil {
		return SessionView{}, err
	}
	return session.View(), nil
}

func (s *AssessmentService) View(ctx context.Context, sessionID string) (SessionView, error) {
	return s.do(ctx, sessionID, func(*Session) error { return nil })
}

func (s *AssessmentService) Answer(ctx context.Context, sessionID, questionID string, value any) (SessionView, error) {
	return s.do(ctx, sessionID, func(ss *Session) error { return ss.Answer(questionID, value) })
}

func (s *AssessmentService) Next(ctx context.Context, sessionID string) (SessionView, error) {
	return s.do(ctx, sessionID, (*Session).Next)
}

func (s *AssessmentService) Previous(ctx context.Context, sessionID string) (SessionView, error) {
	return s.do(ctx, sessionID, (*Session).Previous)
}

func (s *AssessmentService) GoTo(ctx context.Context, sessionID string, index int) (SessionView, error) {
	return s.do(ctx, sessionID, func(ss *Session) error { return ss.GoTo(index) })
}

func (s *AssessmentService) ToggleFlag(ctx context.Context, sessionID, questionID string) (SessionView, error) {
	return s.do(ctx, sessionID, func(ss *Session) error { return ss.ToggleFlag(questionID) })
}

// Subscribe returns a channel that receives views of a live session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AssessmentService) Subscribe(ctx context.Context, sessionID string) (<-chan SessionView, func(), error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Submit grades and stores the session's attempt. A session whose attempt
// could not be stored stays live, and submitting again retries the write.
// Once the session has been stored and evicted, the stored attempt is
// returned instead.
func (s *AssessmentService) Submit(ctx context.Context, sessionID string) (domain.Attempt, error) {
	session, ok := s.sessions.Get(ctx, sessionID)
	if !ok {
		attempt, err := s.attempts.GetAttempt(ctx, sessionID)
		if errors.Is(err, domain.ErrAttemptNotFound) {
			return domain.Attempt{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		if err == nil && attempt.Status == domain.AttemptAbandoned {
			return domain.Attempt{}, fmt.Errorf("%w: session %s was abandoned", domain.ErrSessionClosed, sessionID)
		}
		return attempt, err
	}
	return session.Submit(ctx)
}

// Abandon ends a live session without grading it.
func (s *AssessmentService) Abandon(ctx context.Context, sessionID string) (domain.Attempt, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.Attempt{}, err
	}
	return session.Abandon(ctx)
}

// GradeAttempt applies manual grades to the pending results of an attempt
// and stores the amended attempt.
func (s *AssessmentService) GradeAttempt(ctx context.Context, attemptID string, grades map[string]scoring.ManualGrade) (domain.Attempt, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.Attempt{}, err
	}
	graded, err := scoring.ApplyManualGrades(attempt, quiz.Settings.PassingScore, grades)
	if err != nil {
		return domain.Attempt{}, err
	}
	if err := s.attempts.UpdateAttempt(ctx, graded); err != nil {
		return domain.Attempt{}, fmt.Errorf("update attempt %s: %w", attemptID, err)
	}
	s.publish(ctx, EventAttemptGraded, graded)
	return graded, nil
}

// scoredAttempts lists completed and timed-out attempts matching filter.
func (s *AssessmentService) scoredAttempts(ctx context.Context, filter AttemptFilter) ([]domain.Attempt, error) {
	all, err := s.attempts.ListAttempts(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Attempt, 0, len(all))
	for _, a := range all {
		if a.Status.Scored() {
			out = append(out, a)
		}
	}
	return out, nil
}

// QuizReport runs quiz and question analytics over the quiz's scored attempts.
func (s *AssessmentService) QuizReport(ctx context.Context, quizID string) (analytics.Report, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return analytics.Report{}, err
	}
	attempts, err := s.scoredAttempts(ctx, AttemptFilter{QuizID: quizID})
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.BuildReport(quiz, attempts, s.clock.Now()), nil
}

// UserStats summarises every attempt by userID. Quizzes that no longer
// exist only lose their subject grouping.
func (s *AssessmentService) UserStats(ctx context.Context, userID string) (analytics.UserQuizStats, error) {
	attempts, err := s.attempts.ListAttempts(ctx, AttemptFilter{UserID: userID})
	if err != nil {
		return analytics.UserQuizStats{}, err
	}
	seen := make(map[string]bool)
	var quizzes []domain.Quiz
	for _, a := range attempts {
		if seen[a.QuizID] {
			continue
		}
		seen[a.QuizID] = true
		quiz, err := s.quizzes.GetQuiz(ctx, a.QuizID)
		if errors.Is(err, domain.ErrQuizNotFound) {
			continue
		}
		if err != nil {
			return analytics.UserQuizStats{}, err
		}
		quizzes = append(quizzes, quiz)
	}
	return analytics.GenerateUserQuizStats(userID, attempts, quizzes, s.clock.Now()), nil
}

// Performance ranks userID against everyone's scored attempts on quizID.
func (s *AssessmentService) Performance(ctx context.Context, userID, quizID string) (analytics.PerformanceAnalysis, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return analytics.PerformanceAnalysis{}, err
	}
	attempts, err := s.scoredAttempts(ctx, AttemptFilter{QuizID: quizID})
	if err != nil {
		return analytics.PerformanceAnalysis{}, err
	}
	return analytics.AnalyzePerformance(userID, quiz, attempts), nil
}
