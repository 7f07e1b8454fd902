package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quiz-engine/internal/authoring"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/scoring"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--config", missing))
	err := cmd.Execute()
	return out.String(), err
}

func TestDemoQuizIsPublished(t *testing.T) {
	quiz := demoQuiz()
	if quiz.ID != demoQuizID || quiz.Status != domain.QuizPublished || len(quiz.Questions) != 3 {
		t.Fatalf("unexpected demo quiz %+v", quiz)
	}
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	doc, err := authoring.ExportJSON(demoQuiz(), true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	quizFile := filepath.Join(dir, "quiz.json")
	answersFile := filepath.Join(dir, "answers.json")
	if err := os.WriteFile(quizFile, doc, 0o600); err != nil {
		t.Fatalf("write quiz: %v", err)
	}
	if err := os.WriteFile(answersFile, []byte(`{"q1": "o2", "q2": true, "q3": "392 km"}`), 0o600); err != nil {
		t.Fatalf("write answers: %v", err)
	}

	out, err := run(t, "score", "--quiz", quizFile, "--answers", answersFile)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var result struct {
		Score      float64 `json:"score"`
		Percentage int     `json:"percentage"`
		Passed     bool    `json:"passed"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Score != 4 || result.Percentage != 100 || !result.Passed {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestExportCommand(t *testing.T) {
	out, err := run(t, "export", "--quiz", demoQuizID, "--format", "csv")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if !strings.HasPrefix(out, "id,type,prompt,") || !strings.Contains(out, "392 km") {
		t.Fatalf("unexpected csv:\n%s", out)
	}

	out, err = run(t, "export", "--quiz", demoQuizID)
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	if strings.Contains(out, `"correctAnswer": "o2"`) {
		t.Fatalf("export without --answers leaked keys:\n%s", out)
	}

	if _, err := run(t, "export", "--quiz", demoQuizID, "--format", "xml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
	if _, err := run(t, "export", "--quiz", "nope"); err == nil {
		t.Fatalf("expected missing quiz error")
	}
}

func TestReportCommand(t *testing.T) {
	out, err := run(t, "report", "--quiz", demoQuizID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var report struct {
		Quiz struct {
			QuizID        string `json:"quizId"`
			TotalAttempts int    `json:"totalAttempts"`
		} `json:"quiz"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Quiz.QuizID != demoQuizID || report.Quiz.TotalAttempts != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSplitCriteria(t *testing.T) {
	cases := map[string]string{
		"thesis,style":      "[thesis style]",
		" thesis , style ":  "[thesis style]",
		"thesis,, evidence": "[thesis evidence]",
		" , ":               "[]",
	}
	for raw, want := range cases {
		if got := fmt.Sprint(splitCriteria(raw)); got != want {
			t.Errorf("splitCriteria(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestRubricCriteriaWithSpaces(t *testing.T) {
	essay := domain.Essay{
		QuestionBase: domain.QuestionBase{ID: "e1", Prompt: "Argue a point.", Points: 6},
		Rubric:       []string{"thesis", "evidence", "style"},
	}
	grade, err := scoring.RubricGrade(essay, splitCriteria("thesis, style"), "reviewer")
	if err != nil {
		t.Fatalf("rubric grade: %v", err)
	}
	if grade.Points != 4 {
		t.Fatalf("expected 4 points, got %v", grade.Points)
	}
}
