package analytics

import (
	"encoding/json"
	"math"
	"sort"

	"quiz-engine/internal/domain"
)

// minDiscriminationAttempts is the smallest sample that yields a
// discrimination index; below it the index is reported as zero.
const minDiscriminationAttempts = 10

// groupShare is the fraction of attempts in each of the top and bottom groups.
const groupShare = 0.27

// QuestionAnalytics describes how one question performed across attempts.
type QuestionAnalytics struct {
	QuestionID          string              `json:"questionId"`
	Type                domain.QuestionType `json:"type"`
	Prompt              string              `json:"prompt"`
	Responses           int                 `json:"responses"`
	CorrectRate         float64             `json:"correctRate"`
	AverageTimeSpent    float64             `json:"averageTimeSpent"` // seconds
	CommonWrongAnswer   any                 `json:"commonWrongAnswer,omitempty"`
	CommonWrongCount    int                 `json:"commonWrongCount,omitempty"`
	DiscriminationIndex float64             `json:"discriminationIndex"`
}

// GenerateQuestionAnalytics computes per-question statistics in question order.
func GenerateQuestionAnalytics(questions domain.Questions, attempts []domain.Attempt) []QuestionAnalytics {
	top, bottom := splitGroups(attempts)
	out := make([]QuestionAnalytics, 0, len(questions))
	for _, q := range questions {
		b := q.Base()
		qa := QuestionAnalytics{QuestionID: b.ID, Type: q.Type(), Prompt: b.Prompt}

		correct, timeSpent := 0, 0
		wrong := newTally()
		for _, a := range attempts {
			r, ok := a.Result(b.ID)
			if !ok {
				continue
			}
			qa.Responses++
			timeSpent += r.TimeSpent
			if r.Correct {
				correct++
			} else if r.Answer != nil && !r.PendingReview {
				wrong.add(r.Answer)
			}
		}
		if qa.Responses > 0 {
			qa.CorrectRate = rate(correct, qa.Responses)
			qa.AverageTimeSpent = domain.Round2(float64(timeSpent) / float64(qa.Responses))
		}
		qa.CommonWrongAnswer, qa.CommonWrongCount = wrong.mode()
		if top != nil {
			qa.DiscriminationIndex = domain.Round2(groupRate(top, b.ID) - groupRate(bottom, b.ID))
		}
		out = append(out, qa)
	}
	return out
}

// splitGroups returns the top and bottom ceil(27%) of attempts by percentage,
// or nil when there are too few attempts.
func splitGroups(attempts []domain.Attempt) (top, bottom []domain.Attempt) {
	if len(attempts) < minDiscriminationAttempts {
		return nil, nil
	}
	ranked := append([]domain.Attempt(nil), attempts...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Percentage > ranked[j].Percentage })
	k := int(math.Ceil(float64(len(ranked)) * groupShare))
	return ranked[:k], ranked[len(ranked)-k:]
}

func groupRate(group []domain.Attempt, questionID string) float64 {
	if len(group) == 0 {
		return 0
	}
	correct := 0
	for _, a := range group {
		if r, ok := a.Result(questionID); ok && r.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(group))
}

// tally counts answers by their JSON encoding. Map keys encode sorted, so
// equal answers collide regardless of how they were built.
type tally struct {
	counts map[string]int
	values map[string]any
	order  []string
}

func newTally() *tally {
	return &tally{counts: map[string]int{}, values: map[string]any{}}
}

func (t *tally) add(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	key := string(raw)
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
		t.values[key] = v
	}
	t.counts[key]++
}

// mode returns the most frequent value; ties go to the one seen first.
func (t *tally) mode() (any, int) {
	var best string
	n := 0
	for _, key := range t.order {
		if t.counts[key] > n {
			best, n = key, t.counts[key]
		}
	}
	if n == 0 {
		return nil, 0
	}
	return t.values[best], n
}
