// Package authoring builds and edits quizzes. Every operation returns a new
// Quiz value; nothing here touches storage.
package authoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quiz-engine/internal/domain"
)

// ErrOrderMismatch is returned when a reorder does not name every question once.
var ErrOrderMismatch = errors.New("order must list every question exactly once")

// Author creates and edits quizzes.
type Author struct {
	now   func() time.Time
	newID func() string
}

func NewAuthor() *Author {
	return NewAuthorWithClock(time.Now, uuid.NewString)
}

// NewAuthorWithClock allows deterministic timestamps and ids in tests.
func NewAuthorWithClock(now func() time.Time, newID func() string) *Author {
	return &Author{now: now, newID: newID}
}

// CreateInput carries the fields of a new quiz.
type CreateInput struct {
	Title       string
	Description string
	Subject     string
	OwnerID     string
	Settings    *domain.Settings
}

// CreateQuiz returns a new draft quiz with no questions.
func (a *Author) CreateQuiz(in CreateInput) domain.Quiz {
	now := a.now()
	settings := domain.DefaultSettings()
	if in.Settings != nil {
		settings = *in.Settings
	}
	return domain.Quiz{
		ID:          a.newID(),
		Title:       in.Title,
		Description: in.Description,
		Subject:     in.Subject,
		Questions:   domain.Questions{},
		Settings:    settings,
		Status:      domain.QuizDraft,
		OwnerID:     in.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// edit copies quiz for mutation and refreshes UpdatedAt.
func (a *Author) edit(quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.Status != domain.QuizDraft {
		return quiz, fmt.Errorf("%w: quiz %s is %s", domain.ErrQuizNotEditable, quiz.ID, quiz.Status)
	}
	out := quiz
	out.Questions = append(domain.Questions{}, quiz.Questions...)
	out.UpdatedAt = a.now()
	return out, nil
}

// AddQuestion appends q, assigning an id when it has none.
func (a *Author) AddQuestion(quiz domain.Quiz, q domain.Question) (domain.Quiz, error) {
	out, err := a.edit(quiz)
	if err != nil {
		return quiz, err
	}
	if q.Base().ID == "" {
		q = q.WithID(a.newID())
	}
	if _, _, ok := out.Questions.Find(q.Base().ID); ok {
		return quiz, fmt.Errorf("%w: %s", domain.ErrDuplicateQuestion, q.Base().ID)
	}
	out.Questions = append(out.Questions, q)
	return out, nil
}

func (a *Author) RemoveQuestion(quiz domain.Quiz, questionID string) (domain.Quiz, error) {
	out, err := a.edit(quiz)
	if err != nil {
		return quiz, err
	}
	_, i, ok := out.Questions.Find(questionID)
	if !ok {
		return quiz, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, questionID)
	}
	out.Questions = append(out.Questions[:i], out.Questions[i+1:]...)
	return out, nil
}

// UpdateQuestion replaces the question that has q's id.
func (a *Author) UpdateQuestion(quiz domain.Quiz, q domain.Question) (domain.Quiz, error) {
	out, err := a.edit(quiz)
	if err != nil {
		return quiz, err
	}
	_, i, ok := out.Questions.Find(q.Base().ID)
	if !ok {
		return quiz, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, q.Base().ID)
	}
	out.Questions[i] = q
	return out, nil
}

// ReorderQuestions arranges questions in the order of ids, which must name
// each existing question exactly once.
func (a *Author) ReorderQuestions(quiz domain.Quiz, ids []string) (domain.Quiz, error) {
	out, err := a.edit(quiz)
	if err != nil {
		return quiz, err
	}
	if len(ids) != len(out.Questions) {
		return quiz, ErrOrderMismatch
	}
	reordered := make(domain.Questions, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		q, _, ok := out.Questions.Find(id)
		if !ok || seen[id] {
			return quiz, ErrOrderMismatch
		}
		seen[id] = true
		reordered = append(reordered, q)
	}
	out.Questions = reordered
	return out, nil
}

// DuplicateQuestion inserts a deep copy with a fresh id right after the original.
func (a *Author) DuplicateQuestion(quiz domain.Quiz, questionID string) (domain.Quiz, error) {
	out, err := a.edit(quiz)
	if err != nil {
		return quiz, err
	}
	q, i, ok := out.Questions.Find(questionID)
	if !ok {
		return quiz, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, questionID)
	}
	dup, err := cloneQuestion(q)
	if err != nil {
		return quiz, err
	}
	dup = dup.WithID(a.newID())

	questions := make(domain.Questions, 0, len(out.Questions)+1)
	questions = append(questions, out.Questions[:i+1]...)
	questions = append(questions, dup)
	questions = append(questions, out.Questions[i+1:]...)
	out.Questions = questions
	return out, nil
}

// UpdateSettings replaces the quiz settings after range checks.
func (a *Author) UpdateSettings(quiz domain.Quiz, settings domain.Settings) (domain.Quiz, error) {
	if errs := validateSettings(settings); len(errs) > 0 {
		return quiz, errs
	}
	out, err := a.edit(quiz)
	if err != nil {
		return quiz, err
	}
	out.Settings = settings
	return out, nil
}

// Publish validates quiz and moves it from draft to published. A quiz with
// problems is returned unchanged together with its ValidationErrors.
func (a *Author) Publish(quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.Status != domain.QuizDraft {
		return quiz, fmt.Errorf("%w: cannot publish a %s quiz", domain.ErrInvalidTransition, quiz.Status)
	}
	if errs := ValidateQuiz(quiz); len(errs) > 0 {
		return quiz, errs
	}
	return a.transition(quiz, domain.QuizPublished), nil
}

// Archive retires a published quiz. Archived quizzes never come back.
func (a *Author) Archive(quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.Status != domain.QuizPublished {
		return quiz, fmt.Errorf("%w: cannot archive a %s quiz", domain.ErrInvalidTransition, quiz.Status)
	}
	return a.transition(quiz, domain.QuizArchived), nil
}

// Reopen returns a published quiz to draft so it can be edited again.
func (a *Author) Reopen(quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.Status != domain.QuizPublished {
		return quiz, fmt.Errorf("%w: cannot reopen a %s quiz", domain.ErrInvalidTransition, quiz.Status)
	}
	return a.transition(quiz, domain.QuizDraft), nil
}

func (a *Author) transition(quiz domain.Quiz, to domain.QuizStatus) domain.Quiz {
	out := quiz
	out.Questions = append(domain.Questions{}, quiz.Questions...)
	out.Status = to
	out.UpdatedAt = a.now()
	return out
}

func cloneQuestion(q domain.Question) (domain.Question, error) {
	data, err := domain.MarshalQuestion(q)
	if err != nil {
		return nil, err
	}
	return domain.UnmarshalQuestion(data)
}
