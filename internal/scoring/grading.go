package scoring

import (
	"fmt"
	"math"

	"quiz-engine/internal/domain"
)

// ManualGrade is a reviewer's score for one pending result.
type ManualGrade struct {
	Points   float64 `json:"points"`
	Feedback string  `json:"feedback,omitempty"`
	GradedBy string  `json:"gradedBy,omitempty"`
}

// ApplyManualGrades returns a copy of attempt with the graded results
// amended and totals recomputed. attempt itself is left untouched. Only
// results still pending review can be graded, and all grades are checked
// before any is applied.
func ApplyManualGrades(attempt domain.Attempt, passingScore int, grades map[string]ManualGrade) (domain.Attempt, error) {
	results := make([]domain.QuestionResult, len(attempt.Results))
	copy(results, attempt.Results)

	index := make(map[string]int, len(results))
	for i, r := range results {
		index[r.QuestionID] = i
	}
	for qid, g := range grades {
		i, ok := index[qid]
		if !ok {
			return attempt, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, qid)
		}
		if !results[i].PendingReview {
			return attempt, fmt.Errorf("%w: %s", domain.ErrNotPendingReview, qid)
		}
		if math.IsNaN(g.Points) || g.Points < 0 || g.Points > results[i].MaxPoints {
			return attempt, fmt.Errorf("%w: %s scored %v of %v", domain.ErrInvalidGrade, qid, g.Points, results[i].MaxPoints)
		}
	}

	for qid, g := range grades {
		r := &results[index[qid]]
		r.PointsEarned = domain.Round2(g.Points)
		r.Correct = r.PointsEarned == r.MaxPoints
		r.PendingReview = false
		r.GradedBy = g.GradedBy
		if g.Feedback != "" {
			r.Feedback = g.Feedback
		} else {
			r.Feedback = fmt.Sprintf("Graded: %v of %v points.", r.PointsEarned, r.MaxPoints)
		}
	}

	out := attempt
	out.Results = results
	score := 0.0
	pending := false
	for _, r := range results {
		score += r.PointsEarned
		if r.PendingReview {
			pending = true
		}
	}
	out.Score = domain.Round2(score)
	out.Percentage = domain.Percentage(out.Score, out.MaxScore)
	out.Passed = out.Percentage >= passingScore
	out.GradingStatus = domain.Graded
	if pending {
		out.GradingStatus = domain.PendingReview
	}
	return out, nil
}

// RubricGrade turns the rubric criteria a reviewer marked as met into a
// grade worth an equal share of the question's points per criterion.
// Unknown criteria are rejected. Questions without a rubric cannot be
// graded this way.
func RubricGrade(q domain.Question, met []string, gradedBy string) (ManualGrade, error) {
	var rubric []string
	switch q := q.(type) {
	case domain.Essay:
		rubric = q.Rubric
	case domain.CaseStudy:
		rubric = q.Rubric
	}
	if len(rubric) == 0 {
		return ManualGrade{}, fmt.Errorf("%w: question %s has no rubric", domain.ErrInvalidGrade, q.Base().ID)
	}

	known := make(map[string]bool, len(rubric))
	for _, c := range rubric {
		known[c] = true
	}
	hit := make(map[string]bool, len(met))
	for _, c := range met {
		if !known[c] {
			return ManualGrade{}, fmt.Errorf("%w: %q is not a rubric criterion", domain.ErrInvalidGrade, c)
		}
		hit[c] = true
	}

	points := q.Base().Points * float64(len(hit)) / float64(len(rubric))
	return ManualGrade{
		Points:   domain.Round2(points),
		Feedback: fmt.Sprintf("Met %d of %d rubric criteria.", len(hit), len(rubric)),
		GradedBy: gradedBy,
	}, nil
}
