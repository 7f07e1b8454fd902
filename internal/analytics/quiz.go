// Package analytics computes quiz, question and learner statistics from
// finished attempts. Every function is pure; callers decide which attempts
// to feed in.
package analytics

import (
	"sort"
	"time"

	"quiz-engine/internal/domain"
)

// dayLayout keys calendar-day histograms.
const dayLayout = "2006-01-02"

// DayCount is one bar of the attempts-by-day histogram.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Bucket is one range of the score distribution, inclusive on both ends.
type Bucket struct {
	Min   int `json:"min"`
	Max   int `json:"max"`
	Count int `json:"count"`
}

// QuizAnalytics summarises all attempts on one quiz. Scores are percentages.
type QuizAnalytics struct {
	QuizID            string     `json:"quizId"`
	Title             string     `json:"title"`
	TotalAttempts     int        `json:"totalAttempts"`
	UniqueUsers       int        `json:"uniqueUsers"`
	AverageScore      float64    `json:"averageScore"`
	MedianScore       float64    `json:"medianScore"`
	PassRate          float64    `json:"passRate"`
	AverageTimeSpent  float64    `json:"averageTimeSpent"` // seconds
	AttemptsByDay     []DayCount `json:"attemptsByDay"`
	ScoreDistribution []Bucket   `json:"scoreDistribution"`
}

func newBuckets() []Bucket {
	return []Bucket{
		{Min: 0, Max: 20},
		{Min: 21, Max: 40},
		{Min: 41, Max: 60},
		{Min: 61, Max: 80},
		{Min: 81, Max: 100},
	}
}

func bucketIndex(pct int) int {
	switch {
	case pct <= 20:
		return 0
	case pct <= 40:
		return 1
	case pct <= 60:
		return 2
	case pct <= 80:
		return 3
	}
	return 4
}

// GenerateQuizAnalytics aggregates attempts on quiz.
func GenerateQuizAnalytics(quiz domain.Quiz, attempts []domain.Attempt) QuizAnalytics {
	out := QuizAnalytics{
		QuizID:            quiz.ID,
		Title:             quiz.Title,
		TotalAttempts:     len(attempts),
		AttemptsByDay:     []DayCount{},
		ScoreDistribution: newBuckets(),
	}
	if len(attempts) == 0 {
		return out
	}

	users := make(map[string]struct{})
	days := make(map[string]int)
	scores := make([]float64, 0, len(attempts))
	passed, timeSpent := 0, 0
	for _, a := range attempts {
		users[a.UserID] = struct{}{}
		days[attemptTime(a).Format(dayLayout)]++
		scores = append(scores, float64(a.Percentage))
		if a.Passed {
			passed++
		}
		timeSpent += a.TimeSpent
		out.ScoreDistribution[bucketIndex(a.Percentage)].Count++
	}

	out.UniqueUsers = len(users)
	out.AverageScore = domain.Round2(mean(scores))
	out.MedianScore = domain.Round2(median(scores))
	out.PassRate = rate(passed, len(attempts))
	out.AverageTimeSpent = domain.Round2(float64(timeSpent) / float64(len(attempts)))
	for day, n := range days {
		out.AttemptsByDay = append(out.AttemptsByDay, DayCount{Date: day, Count: n})
	}
	sort.Slice(out.AttemptsByDay, func(i, j int) bool {
		return out.AttemptsByDay[i].Date < out.AttemptsByDay[j].Date
	})
	return out
}

// attemptTime is when an attempt finished, or started if it never did.
func attemptTime(a domain.Attempt) time.Time {
	if a.CompletedAt.IsZero() {
		return a.StartedAt
	}
	return a.CompletedAt
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// rate returns part/total as a percentage with two decimals.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return domain.Round2(float64(part) / float64(total) * 100)
}
