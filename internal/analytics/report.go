package analytics

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"quiz-engine/internal/domain"
)

// Report bundles quiz-level and question-level analytics for export.
type Report struct {
	Quiz        QuizAnalytics       `json:"quiz"`
	Questions   []QuestionAnalytics `json:"questions"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// BuildReport runs both quiz and question analytics over attempts.
func BuildReport(quiz domain.Quiz, attempts []domain.Attempt, now time.Time) Report {
	return Report{
		Quiz:        GenerateQuizAnalytics(quiz, attempts),
		Questions:   GenerateQuestionAnalytics(quiz.Questions, attempts),
		GeneratedAt: now,
	}
}

func WriteReportJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

var reportHeader = []string{
	"question_id", "type", "prompt", "responses", "correct_rate",
	"average_time_spent", "common_wrong_answer", "common_wrong_count", "discrimination_index",
}

// WriteReportCSV writes one row per question. Wrong answers are written as
// their JSON encoding.
func WriteReportCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, q := range r.Questions {
		wrong := ""
		if q.CommonWrongAnswer != nil {
			raw, err := json.Marshal(q.CommonWrongAnswer)
			if err != nil {
				return err
			}
			wrong = string(raw)
		}
		row := []string{
			q.QuestionID,
			string(q.Type),
			q.Prompt,
			strconv.Itoa(q.Responses),
			formatFloat(q.CorrectRate),
			formatFloat(q.AverageTimeSpent),
			wrong,
			strconv.Itoa(q.CommonWrongCount),
			formatFloat(q.DiscriminationIndex),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
