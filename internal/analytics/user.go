package analytics

import (
	"sort"
	"time"

	"quiz-engine/internal/domain"
)

const (
	recentAttemptLimit = 10
	defaultGroup       = "General"
)

// SubjectStats is a learner's record within one quiz subject.
type SubjectStats struct {
	Subject      string  `json:"subject"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
}

// UserQuizStats summarises one learner across quizzes.
type UserQuizStats struct {
	UserID            string           `json:"userId"`
	TotalAttempts     int              `json:"totalAttempts"`
	CompletedAttempts int              `json:"completedAttempts"`
	AverageScore      float64          `json:"averageScore"`
	BestScore         int              `json:"bestScore"`
	TotalTimeSpent    int              `json:"totalTimeSpent"` // seconds
	StreakDays        int              `json:"streakDays"`
	BySubject         []SubjectStats   `json:"bySubject"`
	RecentAttempts    []domain.Attempt `json:"recentAttempts"`
}

// GenerateUserQuizStats summarises the attempts belonging to userID. Scores
// come from completed and timed-out attempts only; abandoned ones still count
// towards totals, time and the streak. now anchors the streak.
func GenerateUserQuizStats(userID string, attempts []domain.Attempt, quizzes []domain.Quiz, now time.Time) UserQuizStats {
	out := UserQuizStats{UserID: userID, BySubject: []SubjectStats{}, RecentAttempts: []domain.Attempt{}}

	subjects := make(map[string]string, len(quizzes))
	for _, q := range quizzes {
		subjects[q.ID] = q.Subject
	}

	var mine []domain.Attempt
	for _, a := range attempts {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	if len(mine) == 0 {
		return out
	}
	sort.SliceStable(mine, func(i, j int) bool { return attemptTime(mine[i]).After(attemptTime(mine[j])) })

	type subjectAcc struct {
		attempts int
		scores   []float64
	}
	bySubject := map[string]*subjectAcc{}
	var scores []float64
	days := make([]time.Time, 0, len(mine))
	for _, a := range mine {
		out.TotalAttempts++
		out.TotalTimeSpent += a.TimeSpent
		days = append(days, attemptTime(a))
		if a.Status == domain.AttemptCompleted {
			out.CompletedAttempts++
		}

		subject := subjects[a.QuizID]
		if subject == "" {
			subject = defaultGroup
		}
		acc, ok := bySubject[subject]
		if !ok {
			acc = &subjectAcc{}
			bySubject[subject] = acc
		}
		acc.attempts++

		if !a.Status.Scored() {
			continue
		}
		scores = append(scores, float64(a.Percentage))
		acc.scores = append(acc.scores, float64(a.Percentage))
		if a.Percentage > out.BestScore {
			out.BestScore = a.Percentage
		}
	}

	out.AverageScore = domain.Round2(mean(scores))
	out.StreakDays = streak(days, now)
	for subject, acc := range bySubject {
		out.BySubject = append(out.BySubject, SubjectStats{
			Subject:      subject,
			Attempts:     acc.attempts,
			AverageScore: domain.Round2(mean(acc.scores)),
		})
	}
	sort.Slice(out.BySubject, func(i, j int) bool { return out.BySubject[i].Subject < out.BySubject[j].Subject })

	n := len(mine)
	if n > recentAttemptLimit {
		n = recentAttemptLimit
	}
	out.RecentAttempts = append(out.RecentAttempts, mine[:n]...)
	return out
}

// streak counts consecutive calendar days with activity, ending at the most
// recent active day. It is zero unless that day is today or yesterday.
// Days are taken in now's location.
func streak(times []time.Time, now time.Time) int {
	if len(times) == 0 {
		return 0
	}
	active := make(map[time.Time]bool, len(times))
	var latest time.Time
	for _, t := range times {
		d := day(t.In(now.Location()))
		active[d] = true
		if d.After(latest) {
			latest = d
		}
	}
	today := day(now)
	if !latest.Equal(today) && !latest.Equal(today.AddDate(0, 0, -1)) {
		return 0
	}
	n := 0
	for d := latest; active[d]; d = d.AddDate(0, 0, -1) {
		n++
	}
	return n
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
