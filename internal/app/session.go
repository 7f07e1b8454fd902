package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/scoring"
)

// SessionStatus is the state of one quiz-taking session.
type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionTimedOut   SessionStatus = "timed_out"
	SessionAbandoned  SessionStatus = "abandoned"
)

// Terminal reports whether the session can no longer change.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionTimedOut || s == SessionAbandoned
}

func sessionStatusFor(s domain.AttemptStatus) SessionStatus {
	switch s {
	case domain.AttemptTimedOut:
		return SessionTimedOut
	case domain.AttemptAbandoned:
		return SessionAbandoned
	}
	return SessionCompleted
}

// PersistFunc hands a finished attempt to storage. A session calls it
// outside its lock, one call at a time, until a call succeeds.
type PersistFunc func(ctx context.Context, attempt domain.Attempt) error

// ScoreSummary is the headline outcome of a finished session.
type ScoreSummary struct {
	Status        domain.AttemptStatus `json:"status"`
	GradingStatus domain.GradingStatus `json:"gradingStatus,omitempty"`
	Score         float64              `json:"score"`
	MaxScore      float64              `json:"maxScore"`
	Percentage    int                  `json:"percentage"`
	Passed        bool                 `json:"passed"`
	TimeSpent     int                  `json:"timeSpent"`
}

// SessionView is a point-in-time copy of a session, safe to hand to a
// presentation layer. The current question never carries its answer key.
type SessionView struct {
	ID            string                   `json:"id"`
	QuizID        string                   `json:"quizId"`
	UserID        string                   `json:"userId"`
	Status        SessionStatus            `json:"status"`
	CurrentIndex  int                      `json:"currentIndex"`
	QuestionCount int                      `json:"questionCount"`
	Question      *domain.QuestionSnapshot `json:"question,omitempty"`
	QuestionOrder []string                 `json:"questionOrder"`
	Answers       map[string]any           `json:"answers"`
	Flagged       []string                 `json:"flagged"`
	TimeRemaining *int                     `json:"timeRemaining,omitempty"` // seconds
	StartedAt     time.Time                `json:"startedAt"`
	Result        *ScoreSummary            `json:"result,omitempty"`
	// Attempt is only filled when the quiz shows answers after submission.
	Attempt *domain.Attempt `json:"attempt,omitempty"`
}

// Session is the state machine for one user taking one quiz. It moves from
// not_started to in_progress and then to exactly one terminal state.
type Session struct {
	id      string
	userID  string
	quiz    domain.Quiz
	engine  *scoring.Engine
	clock   Clock
	persist PersistFunc

	mu          sync.Mutex
	status      SessionStatus
	questions   []domain.Question // presentation order
	index       int
	answers     map[string]any
	flagged     map[string]bool
	spent       map[string]time.Duration
	focusAt     time.Time
	timed       bool
	remaining   int
	startedAt   time.Time
	attempt     *domain.Attempt
	stop        chan struct{}
	subscribers map[chan SessionView]struct{}

	// persistMu serializes writes of the finished attempt. The fields below
	// it are guarded by mu.
	persistMu   sync.Mutex
	persistRuns int
	persistErr  error
	persisted   bool
}

// NewSession prepares a session on quiz. The attempt it produces carries id.
// A nil engine or clock falls back to the defaults.
func NewSession(id, userID string, quiz domain.Quiz, engine *scoring.Engine, clock Clock, persist PersistFunc) *Session {
	if engine == nil {
		engine = scoring.NewEngine()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Session{
		id:          id,
		userID:      userID,
		quiz:        quiz,
		engine:      engine,
		clock:       clock,
		persist:     persist,
		status:      SessionNotStarted,
		answers:     make(map[string]any),
		flagged:     make(map[string]bool),
		spent:       make(map[string]time.Duration),
		stop:        make(chan struct{}),
		subscribers: make(map[chan SessionView]struct{}),
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }
func (s *Session) QuizID() string { return s.quiz.ID }

// Start fixes the question and option order and starts the countdown when
// the quiz has a time limit.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SessionNotStarted {
		return fmt.Errorf("%w: cannot start a %s session", domain.ErrInvalidTransition, s.status)
	}
	if len(s.quiz.Questions) == 0 {
		return fmt.Errorf("%w: quiz %s has no questions", domain.ErrInvalidTransition, s.quiz.ID)
	}

	s.questions = presentationOrder(s.quiz)
	now := s.clock.Now()
	s.startedAt, s.focusAt = now, now
	s.status = SessionInProgress
	if secs, ok := s.quiz.Settings.TimeLimitSeconds(); ok {
		s.timed = true
		s.remaining = secs
		go s.runTimer(s.clock.NewTicker(time.Second))
	}
	s.broadcastLocked()
	return nil
}

// Answer records value for questionID, replacing any earlier answer.
func (s *Session) Answer(questionID string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return err
	}
	if _, _, ok := s.quiz.Questions.Find(questionID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, questionID)
	}
	s.answers[questionID] = value
	s.broadcastLocked()
	return nil
}

func (s *Session) Next() error     { return s.move(func(i int) int { return i + 1 }) }
func (s *Session) Previous() error { return s.move(func(i int) int { return i - 1 }) }

// GoTo jumps to index, clamped to the question range.
func (s *Session) GoTo(index int) error { return s.move(func(int) int { return index }) }

func (s *Session) move(to func(int) int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return err
	}
	next := to(s.index)
	if next < 0 {
		next = 0
	}
	if last := len(s.questions) - 1; next > last {
		next = last
	}
	if next != s.index {
		s.accrueLocked(s.clock.Now())
		s.index = next
	}
	s.broadcastLocked()
	return nil
}

// ToggleFlag marks questionID for review, or clears the mark.
func (s *Session) ToggleFlag(questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return err
	}
	if _, _, ok := s.quiz.Questions.Find(questionID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, questionID)
	}
	if s.flagged[questionID] {
		delete(s.flagged, questionID)
	} else {
		s.flagged[questionID] = true
	}
	s.broadcastLocked()
	return nil
}

// Tick takes one second off the countdown. The tick that reaches zero
// submits the session as timed out. It reports whether the session is over.
func (s *Session) Tick(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.status != SessionInProgress || !s.timed {
		over := s.status.Terminal()
		s.mu.Unlock()
		return over, nil
	}
	s.remaining--
	if s.remaining > 0 {
		s.broadcastLocked()
		s.mu.Unlock()
		return false, nil
	}
	attempt, err := s.finalizeLocked(domain.AttemptTimedOut)
	seen := s.persistRuns
	s.mu.Unlock()
	if err != nil {
		return true, err
	}
	return true, s.ensurePersisted(ctx, attempt, seen)
}

// Submit grades the session and persists the attempt. Repeated calls, or a
// call racing the countdown, return the one attempt already produced. When
// storing it failed earlier, a repeated call tries again.
func (s *Session) Submit(ctx context.Context) (domain.Attempt, error) {
	return s.finish(ctx, domain.AttemptCompleted)
}

// Abandon ends the session without grading it. Abandoning again only
// retries a failed write.
func (s *Session) Abandon(ctx context.Context) (domain.Attempt, error) {
	return s.finish(ctx, domain.AttemptAbandoned)
}

func (s *Session) finish(ctx context.Context, status domain.AttemptStatus) (domain.Attempt, error) {
	s.mu.Lock()
	attempt, err := s.finalizeLocked(status)
	seen := s.persistRuns
	s.mu.Unlock()
	if err != nil {
		return domain.Attempt{}, err
	}
	return attempt, s.ensurePersisted(ctx, attempt, seen)
}

// finalizeLocked builds the attempt on the first call. Later calls return
// the stored attempt, unless they ask to abandon a graded attempt or to
// grade an abandoned one.
func (s *Session) finalizeLocked(status domain.AttemptStatus) (domain.Attempt, error) {
	if s.attempt != nil {
		if (status == domain.AttemptAbandoned) != (s.attempt.Status == domain.AttemptAbandoned) {
			return domain.Attempt{}, fmt.Errorf("%w: session %s is %s", domain.ErrSessionClosed, s.id, s.status)
		}
		return *s.attempt, nil
	}
	if err := s.activeLocked(); err != nil {
		return domain.Attempt{}, err
	}

	now := s.clock.Now()
	s.accrueLocked(now)
	attempt := s.buildAttemptLocked(status, now)
	s.attempt = &attempt
	s.status = sessionStatusFor(status)
	close(s.stop)
	s.broadcastLocked()
	return attempt, nil
}

func (s *Session) buildAttemptLocked(status domain.AttemptStatus, now time.Time) domain.Attempt {
	elapsed := now.Sub(s.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if secs, ok := s.quiz.Settings.TimeLimitSeconds(); ok {
		if limit := time.Duration(secs) * time.Second; elapsed > limit {
			elapsed = limit
		}
	}

	attempt := domain.Attempt{
		ID:          s.id,
		QuizID:      s.quiz.ID,
		UserID:      s.userID,
		MaxScore:    domain.Round2(s.quiz.MaxScore()),
		Status:      status,
		TimeSpent:   int(elapsed / time.Second),
		StartedAt:   s.startedAt,
		CompletedAt: now,
	}
	if status == domain.AttemptAbandoned {
		return attempt
	}

	score := s.engine.CalculateQuizScore(s.quiz, s.answers)
	for i := range score.QuestionResults {
		r := &score.QuestionResults[i]
		r.TimeSpent = int(s.spent[r.QuestionID].Round(time.Second) / time.Second)
	}
	attempt.Results = score.QuestionResults
	attempt.Score = score.Score
	attempt.MaxScore = score.MaxScore
	attempt.Percentage = score.Percentage
	attempt.Passed = score.Passed
	attempt.GradingStatus = domain.Graded
	if score.PendingReview {
		attempt.GradingStatus = domain.PendingReview
	}
	return attempt
}

// ensurePersisted writes attempt unless a write already succeeded. seen is
// the number of writes the caller observed when it finished the session:
// callers that waited on a newer write share its outcome, the rest retry.
func (s *Session) ensurePersisted(ctx context.Context, attempt domain.Attempt, seen int) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	done, runs, last := s.persisted, s.persistRuns, s.persistErr
	s.mu.Unlock()
	if done {
		return nil
	}
	if runs > seen {
		return last
	}

	var err error
	if s.persist != nil {
		err = s.persist(ctx, attempt)
	}
	s.mu.Lock()
	s.persistRuns++
	s.persistErr = err
	s.persisted = err == nil
	s.mu.Unlock()
	return err
}

func (s *Session) runTimer(t Ticker) {
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C():
			over, err := s.Tick(context.Background())
			if err != nil {
				log.Printf("session %s: persist timed out attempt: %v", s.id, err)
			}
			if over {
				return
			}
		}
	}
}

func (s *Session) activeLocked() error {
	if s.status != SessionInProgress {
		return fmt.Errorf("%w: session %s is %s", domain.ErrSessionClosed, s.id, s.status)
	}
	return nil
}

// accrueLocked charges the time since the last focus change to the current question.
func (s *Session) accrueLocked(now time.Time) {
	if len(s.questions) == 0 {
		return
	}
	if d := now.Sub(s.focusAt); d > 0 {
		s.spent[s.questions[s.index].Base().ID] += d
	}
	s.focusAt = now
}

// Attempt returns the finished attempt, if any.
func (s *Session) Attempt() (domain.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt == nil {
		return domain.Attempt{}, false
	}
	return *s.attempt, true
}

func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe returns a channel of views, starting with the current one. Slow
// readers only ever see the latest view. The caller must invoke cancel.
func (s *Session) Subscribe() (<-chan SessionView, func()) {
	ch := make(chan SessionView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// drop the stale view so the latest always fits
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func (s *Session) viewLocked() SessionView {
	v := SessionView{
		ID:            s.id,
		QuizID:        s.quiz.ID,
		UserID:        s.userID,
		Status:        s.status,
		CurrentIndex:  s.index,
		QuestionCount: len(s.quiz.Questions),
		QuestionOrder: make([]string, len(s.questions)),
		Answers:       make(map[string]any, len(s.answers)),
		Flagged:       make([]string, 0, len(s.flagged)),
		StartedAt:     s.startedAt,
	}
	for i, q := range s.questions {
		v.QuestionOrder[i] = q.Base().ID
	}
	for k, a := range s.answers {
		v.Answers[k] = a
	}
	for id := range s.flagged {
		v.Flagged = append(v.Flagged, id)
	}
	sort.Strings(v.Flagged)
	if s.status == SessionInProgress {
		v.Question = &domain.QuestionSnapshot{Question: present(s.questions[s.index])}
	}
	if s.timed {
		remaining := s.remaining
		v.TimeRemaining = &remaining
	}
	if s.attempt != nil {
		a := s.attempt
		v.Result = &ScoreSummary{
			Status:        a.Status,
			GradingStatus: a.GradingStatus,
			Score:         a.Score,
			MaxScore:      a.MaxScore,
			Percentage:    a.Percentage,
			Passed:        a.Passed,
			TimeSpent:     a.TimeSpent,
		}
		if s.quiz.Settings.ShowAnswers {
			cp := *a
			v.Attempt = &cp
		}
	}
	return v
}

// present strips the answer key but keeps the session's item order for
// ordering questions.
func present(q domain.Question) domain.Question {
	stripped := q.WithoutAnswerKey()
	if o, ok := q.(domain.Ordering); ok {
		so := stripped.(domain.Ordering)
		so.Items = o.Items
		return so
	}
	return stripped
}

// presentationOrder copies the quiz questions, shuffling parts that allow it
// and then the questions themselves when the quiz asks for it.
func presentationOrder(quiz domain.Quiz) []domain.Question {
	qs := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		qs[i] = shuffleParts(q)
	}
	if quiz.Settings.ShuffleQuestions {
		qs = shuffled(qs)
	}
	return qs
}

// shuffleParts permutes options and pairs when the question allows it.
// Ordering items are always permuted.
func shuffleParts(q domain.Question) domain.Question {
	switch q := q.(type) {
	case domain.MultipleChoice:
		if q.ShuffleOptions {
			q.Options = shuffled(q.Options)
		}
		return q
	case domain.MultipleSelect:
		if q.ShuffleOptions {
			q.Options = shuffled(q.Options)
		}
		return q
	case domain.Matching:
		if q.ShuffleOptions {
			q.Pairs = shuffled(q.Pairs)
		}
		return q
	case domain.Ordering:
		q.Items = shuffled(q.Items)
		return q
	}
	return q
}

// shuffled returns a Fisher-Yates permutation of a copy of items.
func shuffled[T any](items []T) []T {
	out := append([]T(nil), items...)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
