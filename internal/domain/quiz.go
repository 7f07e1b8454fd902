package domain

import "time"

// QuizStatus is the authoring lifecycle state of a quiz.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
	QuizArchived  QuizStatus = "archived"
)

// Settings controls timing and grading of a quiz. Zero TimeLimit and
// MaxAttempts mean unlimited.
type Settings struct {
	TimeLimit        int  `json:"timeLimit"` // minutes
	PassingScore     int  `json:"passingScore"`
	MaxAttempts      int  `json:"maxAttempts"`
	ShuffleQuestions bool `json:"shuffleQuestions"`
	ShowAnswers      bool `json:"showAnswers"`
	AllowRetake      bool `json:"allowRetake"`
}

// DefaultSettings mirrors what a freshly authored quiz starts with.
func DefaultSettings() Settings {
	return Settings{
		PassingScore: 70,
		ShowAnswers:  true,
		AllowRetake:  true,
	}
}

// TimeLimitSeconds returns the limit in seconds and whether one is set.
func (s Settings) TimeLimitSeconds() (int, bool) {
	if s.TimeLimit <= 0 {
		return 0, false
	}
	return s.TimeLimit * 60, true
}

// QuizStats caches aggregates over completed attempts.
type QuizStats struct {
	AttemptCount     int     `json:"attemptCount"`
	AverageScore     float64 `json:"averageScore"`
	AverageTimeSpent float64 `json:"averageTimeSpent"` // seconds
}

// Record folds one more attempt into the running means.
func (s QuizStats) Record(percentage, timeSpent int) QuizStats {
	n := float64(s.AttemptCount)
	return QuizStats{
		AttemptCount:     s.AttemptCount + 1,
		AverageScore:     Round2((s.AverageScore*n + float64(percentage)) / (n + 1)),
		AverageTimeSpent: Round2((s.AverageTimeSpent*n + float64(timeSpent)) / (n + 1)),
	}
}

// Quiz is an authored, ordered collection of questions plus grading settings.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Questions   Questions  `json:"questions"`
	Settings    Settings   `json:"settings"`
	Status      QuizStatus `json:"status"`
	OwnerID     string     `json:"ownerId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Stats       QuizStats  `json:"stats"`
}

// MaxScore sums the point values of all questions.
func (q Quiz) MaxScore() float64 {
	total := 0.0
	for _, question := range q.Questions {
		total += question.Base().Points
	}
	return total
}
