package domain

import "time"

// AttemptStatus records how a session ended.
type AttemptStatus string

const (
	AttemptCompleted AttemptStatus = "completed"
	AttemptAbandoned AttemptStatus = "abandoned"
	AttemptTimedOut  AttemptStatus = "timed_out"
)

// Scored reports whether attempts with this status went through grading.
func (s AttemptStatus) Scored() bool {
	return s == AttemptCompleted || s == AttemptTimedOut
}

// GradingStatus tells whether every result of an attempt has a final score.
type GradingStatus string

const (
	Graded        GradingStatus = "graded"
	PendingReview GradingStatus = "pending_review"
)

// QuestionResult is the graded outcome for one question of an attempt.
type QuestionResult struct {
	QuestionID    string           `json:"questionId"`
	Question      QuestionSnapshot `json:"question"`
	Answer        any              `json:"answer"`
	Correct       bool             `json:"correct"`
	PointsEarned  float64          `json:"pointsEarned"`
	MaxPoints     float64          `json:"maxPoints"`
	Feedback      string           `json:"feedback"`
	Topic         string           `json:"topic,omitempty"`
	TimeSpent     int              `json:"timeSpent"` // seconds
	PendingReview bool             `json:"pendingReview,omitempty"`
	GradedBy      string           `json:"gradedBy,omitempty"`
}

// Attempt is the immutable record of a finished session. Manual grading
// produces a new Attempt value rather than changing this one.
type Attempt struct {
	ID            string           `json:"id"`
	QuizID        string           `json:"quizId"`
	UserID        string           `json:"userId"`
	Results       []QuestionResult `json:"results"`
	Score         float64          `json:"score"`
	MaxScore      float64          `json:"maxScore"`
	Percentage    int              `json:"percentage"`
	Passed        bool             `json:"passed"`
	Status        AttemptStatus    `json:"status"`
	GradingStatus GradingStatus    `json:"gradingStatus"`
	TimeSpent     int              `json:"timeSpent"` // seconds
	StartedAt     time.Time        `json:"startedAt"`
	CompletedAt   time.Time        `json:"completedAt"`
}

// Result returns the result recorded for questionID.
func (a Attempt) Result(questionID string) (QuestionResult, bool) {
	for _, r := range a.Results {
		if r.QuestionID == questionID {
			return r, true
		}
	}
	return QuestionResult{}, false
}
