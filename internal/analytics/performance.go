package analytics

import (
	"fmt"
	"sort"

	"quiz-engine/internal/domain"
)

// Topic thresholds, in percent and seconds.
const (
	weakTopicBelow   = 50
	strongTopicFrom  = 80
	slowTopicAbove   = 120
	excellentScoreAt = 90
)

// TopicStats is a learner's accuracy and pace within one topic.
type TopicStats struct {
	Topic            string  `json:"topic"`
	Questions        int     `json:"questions"`
	Correct          int     `json:"correct"`
	CorrectRate      float64 `json:"correctRate"`
	AverageTimeSpent float64 `json:"averageTimeSpent"` // seconds
}

// PerformanceAnalysis places a learner among all attempts on a quiz.
type PerformanceAnalysis struct {
	UserID          string       `json:"userId"`
	QuizID          string       `json:"quizId"`
	AttemptID       string       `json:"attemptId,omitempty"`
	Score           int          `json:"score"`
	Rank            int          `json:"rank"`
	TotalAttempts   int          `json:"totalAttempts"`
	Percentile      float64      `json:"percentile"`
	Topics          []TopicStats `json:"topics"`
	WeakTopics      []string     `json:"weakTopics"`
	StrongTopics    []string     `json:"strongTopics"`
	SlowTopics      []string     `json:"slowTopics"`
	Recommendations []string     `json:"recommendations"`
}

// AnalyzePerformance ranks the user's best attempt on quiz against every
// attempt in attempts and breaks the user's results down by topic. Rank is
// one plus the number of strictly better attempts; percentile is the share of
// strictly worse ones.
func AnalyzePerformance(userID string, quiz domain.Quiz, attempts []domain.Attempt) PerformanceAnalysis {
	out := PerformanceAnalysis{
		UserID:          userID,
		QuizID:          quiz.ID,
		Topics:          []TopicStats{},
		WeakTopics:      []string{},
		StrongTopics:    []string{},
		SlowTopics:      []string{},
		Recommendations: []string{},
	}

	var onQuiz, mine []domain.Attempt
	for _, a := range attempts {
		if a.QuizID != quiz.ID {
			continue
		}
		onQuiz = append(onQuiz, a)
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	out.TotalAttempts = len(onQuiz)
	if len(mine) == 0 {
		out.Recommendations = append(out.Recommendations, "Take this quiz to get a performance breakdown.")
		return out
	}

	best := mine[0]
	for _, a := range mine[1:] {
		if a.Percentage > best.Percentage {
			best = a
		}
	}
	out.AttemptID = best.ID
	out.Score = best.Percentage

	higher, lower := 0, 0
	for _, a := range onQuiz {
		switch {
		case a.Percentage > best.Percentage:
			higher++
		case a.Percentage < best.Percentage:
			lower++
		}
	}
	out.Rank = higher + 1
	out.Percentile = rate(lower, len(onQuiz))

	out.Topics = topicBreakdown(mine)
	for _, ts := range out.Topics {
		if ts.CorrectRate < weakTopicBelow {
			out.WeakTopics = append(out.WeakTopics, ts.Topic)
		}
		if ts.CorrectRate >= strongTopicFrom {
			out.StrongTopics = append(out.StrongTopics, ts.Topic)
		}
		if ts.AverageTimeSpent > slowTopicAbove {
			out.SlowTopics = append(out.SlowTopics, ts.Topic)
		}
	}
	out.Recommendations = recommend(out, quiz.Settings.PassingScore)
	return out
}

func topicBreakdown(attempts []domain.Attempt) []TopicStats {
	type acc struct {
		questions, correct, time int
	}
	byTopic := map[string]*acc{}
	for _, a := range attempts {
		for _, r := range a.Results {
			topic := r.Topic
			if topic == "" {
				topic = defaultGroup
			}
			t, ok := byTopic[topic]
			if !ok {
				t = &acc{}
				byTopic[topic] = t
			}
			t.questions++
			t.time += r.TimeSpent
			if r.Correct {
				t.correct++
			}
		}
	}

	out := make([]TopicStats, 0, len(byTopic))
	for topic, t := range byTopic {
		out = append(out, TopicStats{
			Topic:            topic,
			Questions:        t.questions,
			Correct:          t.correct,
			CorrectRate:      rate(t.correct, t.questions),
			AverageTimeSpent: domain.Round2(float64(t.time) / float64(t.questions)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

func recommend(p PerformanceAnalysis, passingScore int) []string {
	recs := []string{}
	for _, topic := range p.WeakTopics {
		recs = append(recs, fmt.Sprintf("Review %s: fewer than half of these questions were answered correctly.", topic))
	}
	for _, topic := range p.SlowTopics {
		recs = append(recs, fmt.Sprintf("Practise %s to build speed: answers took over %d seconds on average.", topic, slowTopicAbove))
	}
	switch {
	case p.Score < passingScore:
		recs = append(recs, "Read the explanations for missed questions, then retake the quiz.")
	case p.Score >= excellentScoreAt:
		recs = append(recs, "Excellent result. Try a harder quiz on this subject.")
	case len(p.WeakTopics) == 0:
		recs = append(recs, "Solid pass. Aim for 90% on your next attempt.")
	}
	return recs
}
