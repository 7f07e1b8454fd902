package scoring

import "quiz-engine/internal/domain"

// QuizScore is the graded outcome of a whole quiz.
type QuizScore struct {
	Score           float64                 `json:"score"`
	MaxScore        float64                 `json:"maxScore"`
	Percentage      int                     `json:"percentage"`
	Passed          bool                    `json:"passed"`
	PendingReview   bool                    `json:"pendingReview"`
	QuestionResults []domain.QuestionResult `json:"questionResults"`
}

// CalculateQuizScore grades answers against quiz with the default policy.
func CalculateQuizScore(quiz domain.Quiz, answers map[string]any) QuizScore {
	return defaultEngine.CalculateQuizScore(quiz, answers)
}

// CalculateQuizScore grades every question once, in quiz order. Questions
// missing from answers are scored as unanswered.
func (e *Engine) CalculateQuizScore(quiz domain.Quiz, answers map[string]any) QuizScore {
	out := QuizScore{QuestionResults: make([]domain.QuestionResult, 0, len(quiz.Questions))}
	score := 0.0
	for _, q := range quiz.Questions {
		base := q.Base()
		answer := answers[base.ID]
		res := e.ValidateAnswer(q, answer)

		score += res.PointsEarned
		out.MaxScore += base.Points
		if res.PendingReview {
			out.PendingReview = true
		}
		out.QuestionResults = append(out.QuestionResults, domain.QuestionResult{
			QuestionID:    base.ID,
			Question:      domain.QuestionSnapshot{Question: q},
			Answer:        answer,
			Correct:       res.Correct,
			PointsEarned:  res.PointsEarned,
			MaxPoints:     base.Points,
			Feedback:      res.Feedback,
			Topic:         topicOf(base),
			PendingReview: res.PendingReview,
		})
	}
	out.Score = domain.Round2(score)
	out.MaxScore = domain.Round2(out.MaxScore)
	out.Percentage = domain.Percentage(out.Score, out.MaxScore)
	out.Passed = out.Percentage >= quiz.Settings.PassingScore
	return out
}

func topicOf(b domain.QuestionBase) string {
	if b.Topic != "" {
		return b.Topic
	}
	if len(b.Tags) > 0 {
		return b.Tags[0]
	}
	return ""
}
