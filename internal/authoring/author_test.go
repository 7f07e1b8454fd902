package authoring_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"quiz-engine/internal/authoring"
	"quiz-engine/internal/domain"
)

func newTestAuthor() (*authoring.Author, *time.Time) {
	now := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	seq := 0
	author := authoring.NewAuthorWithClock(
		func() time.Time { return now },
		func() string { seq++; return fmt.Sprintf("id-%d", seq) },
	)
	return author, &now
}

func trueFalse(id string) domain.TrueFalse {
	return domain.TrueFalse{
		QuestionBase:  domain.QuestionBase{ID: id, Prompt: "The sky is blue", Difficulty: domain.DifficultyEasy, Points: 1},
		CorrectAnswer: true,
	}
}

func draftWith(t *testing.T, a *authoring.Author, ids ...string) domain.Quiz {
	t.Helper()
	quiz := a.CreateQuiz(authoring.CreateInput{Title: "Basics", OwnerID: "reviewer-1"})
	for _, id := range ids {
		var err error
		if quiz, err = a.AddQuestion(quiz, trueFalse(id)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	return quiz
}

func questionIDs(q domain.Quiz) []string {
	ids := make([]string, len(q.Questions))
	for i, question := range q.Questions {
		ids[i] = question.Base().ID
	}
	return ids
}

func TestCreateQuizDefaults(t *testing.T) {
	a, now := newTestAuthor()
	quiz := a.CreateQuiz(authoring.CreateInput{Title: "Basics", OwnerID: "reviewer-1"})

	if quiz.ID != "id-1" || quiz.Status != domain.QuizDraft {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if quiz.Settings != domain.DefaultSettings() {
		t.Fatalf("expected default settings, got %+v", quiz.Settings)
	}
	if !quiz.CreatedAt.Equal(*now) || !quiz.UpdatedAt.Equal(*now) {
		t.Fatalf("timestamps not set from clock")
	}
}

func TestAddQuestionAssignsIDAndRejectsDuplicates(t *testing.T) {
	a, _ := newTestAuthor()
	quiz := draftWith(t, a, "q1")

	quiz, err := a.AddQuestion(quiz, trueFalse(""))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if got := quiz.Questions[1].Base().ID; got == "" {
		t.Fatalf("expected generated id")
	}

	if _, err := a.AddQuestion(quiz, trueFalse("q1")); !errors.Is(err, domain.ErrDuplicateQuestion) {
		t.Fatalf("expected ErrDuplicateQuestion, got %v", err)
	}
}

func TestEditsDoNotMutateInput(t *testing.T) {
	a, now := newTestAuthor()
	quiz := draftWith(t, a, "q1", "q2")
	*now = now.Add(time.Hour)

	updated, err := a.RemoveQuestion(quiz, "q1")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(quiz.Questions) != 2 || len(updated.Questions) != 1 {
		t.Fatalf("input must be untouched: %d / %d", len(quiz.Questions), len(updated.Questions))
	}
	if !updated.UpdatedAt.After(quiz.UpdatedAt) {
		t.Fatalf("UpdatedAt must advance")
	}
	if _, err := a.RemoveQuestion(updated, "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestUpdateQuestion(t *testing.T) {
	a, _ := newTestAuthor()
	quiz := draftWith(t, a, "q1")

	changed := trueFalse("q1")
	changed.Prompt = "Water is wet"
	quiz, err := a.UpdateQuestion(quiz, changed)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if quiz.Questions[0].Base().Prompt != "Water is wet" {
		t.Fatalf("prompt not replaced")
	}
	if _, err := a.UpdateQuestion(quiz, trueFalse("q9")); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestReorderQuestions(t *testing.T) {
	a, _ := newTestAuthor()
	quiz := draftWith(t, a, "q1", "q2", "q3")

	reordered, err := a.ReorderQuestions(quiz, []string{"q3", "q1", "q2"})
	if err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	if got := fmt.Sprint(questionIDs(reordered)); got != "[q3 q1 q2]" {
		t.Fatalf("unexpected order %s", got)
	}

	bad := [][]string{
		{"q1", "q2"},
		{"q1", "q1", "q2"},
		{"q1", "q2", "q4"},
	}
	for _, ids := range bad {
		if _, err := a.ReorderQuestions(quiz, ids); !errors.Is(err, authoring.ErrOrderMismatch) {
			t.Errorf("%v: expected ErrOrderMismatch, got %v", ids, err)
		}
	}
}

func TestDuplicateQuestionIsDeepCopy(t *testing.T) {
	a, _ := newTestAuthor()
	quiz := a.CreateQuiz(authoring.CreateInput{Title: "Colors"})
	ms := domain.MultipleSelect{
		QuestionBase:   domain.QuestionBase{ID: "q1", Prompt: "Primary colors", Points: 2, Tags: []string{"art"}},
		Options:        []domain.Option{{ID: "a", Text: "Red"}, {ID: "b", Text: "Green"}, {ID: "c", Text: "Blue"}},
		CorrectAnswers: []string{"a", "c"},
	}
	quiz, err := a.AddQuestion(quiz, ms)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	quiz, err = a.AddQuestion(quiz, trueFalse("q2"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	quiz, err = a.DuplicateQuestion(quiz, "q1")
	if err != nil {
		t.Fatalf("duplicate failed: %v", err)
	}
	ids := questionIDs(quiz)
	if len(ids) != 3 || ids[0] != "q1" || ids[2] != "q2" || ids[1] == "q1" {
		t.Fatalf("copy must follow the original: %v", ids)
	}

	dup := quiz.Questions[1].(domain.MultipleSelect)
	dup.Options[0].Text = "Crimson"
	dup.Tags[0] = "changed"
	orig := quiz.Questions[0].(domain.MultipleSelect)
	if orig.Options[0].Text != "Red" || orig.Tags[0] != "art" {
		t.Fatalf("duplicate shares memory with the original")
	}
}

func TestUpdateSettingsRangeChecks(t *testing.T) {
	a, _ := newTestAuthor()
	quiz := draftWith(t, a, "q1")

	s := quiz.Settings
	s.PassingScore = 120
	var verrs authoring.ValidationErrors
	if _, err := a.UpdateSettings(quiz, s); !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	s.PassingScore = 50
	s.TimeLimit = 30
	quiz, err := a.UpdateSettings(quiz, s)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if quiz.Settings.PassingScore != 50 || quiz.Settings.TimeLimit != 30 {
		t.Fatalf("settings not applied: %+v", quiz.Settings)
	}
}

func TestLifecycle(t *testing.T) {
	a, _ := newTestAuthor()
	quiz := draftWith(t, a, "q1")

	published, err := a.Publish(quiz)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if published.Status != domain.QuizPublished {
		t.Fatalf("expected published, got %s", published.Status)
	}
	if _, err := a.AddQuestion(published, trueFalse("q2")); !errors.Is(err, domain.ErrQuizNotEditable) {
		t.Fatalf("published quiz must reject edits, got %v", err)
	}
	if _, err := a.Publish(published); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	reopened, err := a.Reopen(published)
	if err != nil || reopened.Status != domain.QuizDraft {
		t.Fatalf("reopen failed: %v %s", err, reopened.Status)
	}

	archived, err := a.Archive(published)
	if err != nil || archived.Status != domain.QuizArchived {
		t.Fatalf("archive failed: %v %s", err, archived.Status)
	}
	if _, err := a.Reopen(archived); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("archived is terminal, got %v", err)
	}
	if _, err := a.Archive(quiz); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("draft cannot be archived, got %v", err)
	}
}

func TestPublishRejectsInvalidQuiz(t *testing.T) {
	a, _ := newTestAuthor()
	quiz := a.CreateQuiz(authoring.CreateInput{Title: "  "})

	_, err := a.Publish(quiz)
	var verrs authoring.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	if !fields["title"] || !fields["questions"] {
		t.Fatalf("expected title and questions errors, got %v", verrs)
	}
}
