package authoring_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"quiz-engine/internal/authoring"
	"quiz-engine/internal/domain"
)

func sampleQuiz(t *testing.T, a *authoring.Author) domain.Quiz {
	t.Helper()
	quiz := a.CreateQuiz(authoring.CreateInput{Title: "Geography", Subject: "geo", OwnerID: "reviewer-1"})
	questions := []domain.Question{
		domain.MultipleChoice{
			QuestionBase:  domain.QuestionBase{ID: "capital", Prompt: "Capital of France?", Points: 1, Topic: "europe"},
			Options:       []domain.Option{{ID: "a", Text: "Lyon"}, {ID: "b", Text: "Paris"}},
			CorrectAnswer: "b",
		},
		domain.Calculation{
			QuestionBase:  domain.QuestionBase{ID: "distance", Prompt: "Paris to Lyon?", Points: 2},
			CorrectAnswer: 392,
			Units:         "km",
		},
	}
	for _, q := range questions {
		var err error
		if quiz, err = a.AddQuestion(quiz, q); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	return quiz
}

func TestExportImportWithAnswers(t *testing.T) {
	a, _ := newTestAuthor()
	quiz := sampleQuiz(t, a)

	data, err := authoring.ExportJSON(quiz, true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	imported, err := a.ImportJSON(data, "reviewer-2")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported.ID == quiz.ID || imported.OwnerID != "reviewer-2" || imported.Status != domain.QuizDraft {
		t.Fatalf("import must create a new draft: %+v", imported)
	}
	if imported.Title != "Geography" || len(imported.Questions) != 2 {
		t.Fatalf("content lost: %+v", imported)
	}
	mc := imported.Questions[0].(domain.MultipleChoice)
	if mc.CorrectAnswer != "b" {
		t.Fatalf("answer key lost: %+v", mc)
	}
}

func TestExportWithoutAnswers(t *testing.T) {
	a, _ := newTestAuthor()
	data, err := authoring.ExportJSON(sampleQuiz(t, a), false)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if bytes.Contains(data, []byte(`"correctAnswer": "b"`)) || bytes.Contains(data, []byte("392")) {
		t.Fatalf("answer keys leaked:\n%s", data)
	}
}

func TestImportRefusesDocumentWithoutAnswerKeys(t *testing.T) {
	a, _ := newTestAuthor()
	quiz := a.CreateQuiz(authoring.CreateInput{Title: "Facts", OwnerID: "reviewer-1"})
	for _, q := range []domain.Question{
		domain.TrueFalse{QuestionBase: domain.QuestionBase{ID: "tf", Prompt: "Water is wet", Points: 1}, CorrectAnswer: true},
		domain.Calculation{QuestionBase: domain.QuestionBase{ID: "calc", Prompt: "6 x 7", Points: 1}, CorrectAnswer: 42},
	} {
		var err error
		if quiz, err = a.AddQuestion(quiz, q); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	data, err := authoring.ExportJSON(quiz, false)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := a.ImportJSON(data, "reviewer-2"); !errors.Is(err, domain.ErrMissingAnswerKeys) {
		t.Fatalf("expected ErrMissingAnswerKeys, got %v", err)
	}

	data, err = authoring.ExportJSON(quiz, true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	imported, err := a.ImportJSON(data, "reviewer-2")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	published, err := a.Publish(imported)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if tf := published.Questions[0].(domain.TrueFalse); !tf.CorrectAnswer {
		t.Fatalf("true/false key lost: %+v", tf)
	}
	if calc := published.Questions[1].(domain.Calculation); calc.CorrectAnswer != 42 {
		t.Fatalf("calculation key lost: %+v", calc)
	}
}

func TestImportRejectsBadDocuments(t *testing.T) {
	a, _ := newTestAuthor()
	if _, err := a.ImportJSON([]byte(`{"version":99,"title":"x","questions":[]}`), "u"); err == nil {
		t.Fatalf("expected version error")
	}
	if _, err := a.ImportJSON([]byte(`{"version":1,"title":"x","questions":[{"type":"riddle","id":"q"}]}`), "u"); !errors.Is(err, domain.ErrUnknownQuestionType) {
		t.Fatalf("expected ErrUnknownQuestionType, got %v", err)
	}
	dupes := `{"version":1,"title":"x","answerKeys":true,"questions":[
		{"type":"true_false","id":"q","prompt":"p","points":1,"correctAnswer":true},
		{"type":"true_false","id":"q","prompt":"p","points":1,"correctAnswer":false}]}`
	if _, err := a.ImportJSON([]byte(dupes), "u"); !errors.Is(err, domain.ErrDuplicateQuestion) {
		t.Fatalf("expected ErrDuplicateQuestion, got %v", err)
	}
}

func TestExportQuestionsCSV(t *testing.T) {
	a, _ := newTestAuthor()
	var buf bytes.Buffer
	if err := authoring.ExportQuestionsCSV(&buf, sampleQuiz(t, a)); err != nil {
		t.Fatalf("csv: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "capital" || rows[1][6] != "Lyon | Paris" || rows[1][7] != "Paris" {
		t.Fatalf("unexpected row %v", rows[1])
	}
	if rows[2][1] != "calculation" || rows[2][7] != "392 km" {
		t.Fatalf("unexpected row %v", rows[2])
	}
}
