// Package scoring maps a question and a submitted answer to correctness,
// points and feedback. Nothing here returns an error for a malformed answer:
// it earns zero credit instead.
package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"quiz-engine/internal/domain"
)

const (
	FeedbackInvalidFormat = "invalid answer format"
	FeedbackNoAnswer      = "no answer provided"
	FeedbackCorrect       = "Correct!"
	FeedbackManual        = "Answer submitted for manual grading."
)

// floatSlack absorbs binary representation error at the tolerance boundary.
const floatSlack = 1e-9

// Result is the outcome of grading one answer.
type Result struct {
	Correct       bool    `json:"correct"`
	PointsEarned  float64 `json:"pointsEarned"`
	Feedback      string  `json:"feedback"`
	PendingReview bool    `json:"pendingReview,omitempty"`
}

// Engine scores answers under a Policy. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	policy Policy
}

func NewEngine(opts ...Option) *Engine {
	p := DefaultPolicy()
	for _, o := range opts {
		o(&p)
	}
	return &Engine{policy: p}
}

func (e *Engine) Policy() Policy { return e.policy }

var defaultEngine = NewEngine()

// ValidateAnswer scores answer against q using the default policy.
func ValidateAnswer(q domain.Question, answer any) Result {
	return defaultEngine.ValidateAnswer(q, answer)
}

func (e *Engine) ValidateAnswer(q domain.Question, answer any) Result {
	if q == nil {
		return invalidFormat()
	}
	if answer == nil {
		return Result{Feedback: FeedbackNoAnswer}
	}

	var res Result
	switch q := q.(type) {
	case domain.MultipleChoice:
		res = e.multipleChoice(q, answer)
	case domain.TrueFalse:
		res = e.trueFalse(q, answer)
	case domain.MultipleSelect:
		res = e.multipleSelect(q, answer)
	case domain.FillBlank:
		res = e.fillBlank(q, answer)
	case domain.ShortAnswer:
		res = e.shortAnswer(q, answer)
	case domain.Matching:
		res = e.matching(q, answer)
	case domain.Ordering:
		res = e.ordering(q, answer)
	case domain.Calculation:
		res = e.calculation(q, answer)
	case domain.DiagramLabeling:
		res = e.diagramLabel(q, answer)
	case domain.Essay:
		res = manual(answer, q.MinWords, q.MaxWords)
	case domain.CaseStudy:
		res = manual(answer, q.MinWords, q.MaxWords)
	default:
		return invalidFormat()
	}
	res.PointsEarned = clampPoints(res.PointsEarned, q.Base().Points)
	return res
}

func invalidFormat() Result {
	return Result{Feedback: FeedbackInvalidFormat}
}

func clampPoints(v, max float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > max {
		v = max
	}
	return domain.Round2(v)
}

func full(q domain.Question) Result {
	return Result{Correct: true, PointsEarned: q.Base().Points, Feedback: FeedbackCorrect}
}

func (e *Engine) multipleChoice(q domain.MultipleChoice, answer any) Result {
	got, ok := asString(answer)
	if !ok {
		return invalidFormat()
	}
	if got == q.CorrectAnswer {
		return full(q)
	}
	return Result{Feedback: "Incorrect. The correct answer is " + optionText(q.Options, q.CorrectAnswer) + "."}
}

func (e *Engine) trueFalse(q domain.TrueFalse, answer any) Result {
	got, ok := asBool(answer)
	if !ok {
		return invalidFormat()
	}
	if got == q.CorrectAnswer {
		return full(q)
	}
	return Result{Feedback: "Incorrect. The correct answer is " + strconv.FormatBool(q.CorrectAnswer) + "."}
}

func (e *Engine) multipleSelect(q domain.MultipleSelect, answer any) Result {
	picked, ok := asStringSlice(answer)
	if !ok {
		return invalidFormat()
	}
	correct := toSet(q.CorrectAnswers)
	selected := toSet(picked)
	if len(correct) == 0 {
		return Result{Feedback: "Incorrect."}
	}
	if setEqual(correct, selected) {
		return full(q)
	}
	if !q.PartialCredit {
		return Result{Feedback: "Incorrect."}
	}

	hits, wrong := 0, 0
	for s := range selected {
		if _, ok := correct[s]; ok {
			hits++
		} else {
			wrong++
		}
	}
	optionCount := len(q.Options)
	if optionCount == 0 {
		optionCount = len(correct) + wrong
	}
	ratio := float64(hits)/float64(len(correct)) - e.policy.SelectPenalty*float64(wrong)/float64(optionCount)
	if ratio < 0 {
		ratio = 0
	}
	return Result{
		PointsEarned: domain.Round2(ratio * q.Points),
		Feedback:     fmt.Sprintf("Partially correct: %d of %d correct options selected.", hits, len(correct)),
	}
}

// unit is one independently graded part of a multi-part answer.
type unit struct {
	id            string
	key           string
	alternates    []string
	caseSensitive bool
}

// byUnit awards points/len(units) per correct unit.
func byUnit(points float64, units []unit, answers map[string]string, noun string) Result {
	if len(units) == 0 {
		return invalidFormat()
	}
	hits := 0
	for _, u := range units {
		if matchesAny(answers[u.id], u.key, u.alternates, u.caseSensitive) {
			hits++
		}
	}
	if hits == len(units) {
		return Result{Correct: true, PointsEarned: points, Feedback: FeedbackCorrect}
	}
	res := Result{PointsEarned: domain.Round2(points / float64(len(units)) * float64(hits))}
	if hits == 0 {
		res.Feedback = "Incorrect."
	} else {
		res.Feedback = fmt.Sprintf("Partially correct: %d of %d %s.", hits, len(units), noun)
	}
	return res
}

func (e *Engine) fillBlank(q domain.FillBlank, answer any) Result {
	ids := make([]string, len(q.Blanks))
	units := make([]unit, len(q.Blanks))
	for i, b := range q.Blanks {
		ids[i] = b.ID
		units[i] = unit{id: b.ID, key: b.CorrectAnswer, alternates: b.AcceptableAnswers, caseSensitive: b.CaseSensitive}
	}
	answers, ok := asKeyed(answer, ids)
	if !ok {
		return invalidFormat()
	}
	return byUnit(q.Points, units, answers, "blanks")
}

func (e *Engine) matching(q domain.Matching, answer any) Result {
	ids := make([]string, len(q.Pairs))
	units := make([]unit, len(q.Pairs))
	for i, p := range q.Pairs {
		ids[i] = p.ID
		units[i] = unit{id: p.ID, key: p.Right}
	}
	answers, ok := asKeyed(answer, ids)
	if !ok {
		return invalidFormat()
	}
	return byUnit(q.Points, units, answers, "pairs")
}

func (e *Engine) diagramLabel(q domain.DiagramLabeling, answer any) Result {
	ids := make([]string, len(q.Labels))
	units := make([]unit, len(q.Labels))
	for i, l := range q.Labels {
		ids[i] = l.ID
		units[i] = unit{id: l.ID, key: l.CorrectAnswer, alternates: l.AcceptableAnswers, caseSensitive: l.CaseSensitive}
	}
	answers, ok := asKeyed(answer, ids)
	if !ok {
		return invalidFormat()
	}
	return byUnit(q.Points, units, answers, "labels")
}

func (e *Engine) ordering(q domain.Ordering, answer any) Result {
	got, ok := asStringSlice(answer)
	if !ok {
		return invalidFormat()
	}
	canonical := q.CorrectOrder
	if len(canonical) == 0 {
		canonical = make([]string, len(q.Items))
		for i, it := range q.Items {
			canonical[i] = it.ID
		}
	}
	// Positions are the units; the id at each position is the answer.
	units := make([]unit, len(canonical))
	answers := make(map[string]string, len(got))
	for i, id := range canonical {
		pos := strconv.Itoa(i)
		units[i] = unit{id: pos, key: id, caseSensitive: true}
		if i < len(got) {
			answers[pos] = got[i]
		}
	}
	return byUnit(q.Points, units, answers, "items in place")
}

func (e *Engine) shortAnswer(q domain.ShortAnswer, answer any) Result {
	got, ok := asString(answer)
	if !ok {
		return invalidFormat()
	}
	if strings.TrimSpace(got) == "" {
		return Result{Feedback: FeedbackNoAnswer}
	}
	if matchesAny(got, q.CorrectAnswer, q.AcceptableAnswers, q.CaseSensitive) {
		return full(q)
	}
	if len(q.Keywords) == 0 {
		return Result{Feedback: "Incorrect. The expected answer is " + q.CorrectAnswer + "."}
	}
	text := normalize(got, q.CaseSensitive)
	found := 0
	for _, k := range q.Keywords {
		if nk := normalize(k, q.CaseSensitive); nk != "" && strings.Contains(text, nk) {
			found++
		}
	}
	if found == 0 {
		return Result{Feedback: "Incorrect. The expected answer is " + q.CorrectAnswer + "."}
	}
	return Result{
		PointsEarned: domain.Round2(float64(found) / float64(len(q.Keywords)) * q.Points * e.policy.KeywordCredit),
		Feedback:     fmt.Sprintf("Partially correct: found %d of %d key terms.", found, len(q.Keywords)),
	}
}

func (e *Engine) calculation(q domain.Calculation, answer any) Result {
	got, ok := asFloat(answer, q.Units)
	if !ok {
		return invalidFormat()
	}
	tol := e.policy.DefaultTolerance
	if q.Tolerance != nil {
		tol = *q.Tolerance
	}
	if math.Abs(got-q.CorrectAnswer) <= tol+floatSlack {
		return full(q)
	}
	want := strconv.FormatFloat(q.CorrectAnswer, 'f', -1, 64)
	if q.Units != "" {
		want += " " + q.Units
	}
	return Result{Feedback: "Incorrect. The correct answer is " + want + "."}
}

// manual handles the variants that are never auto-scored.
func manual(answer any, minWords, maxWords int) Result {
	text, ok := asString(answer)
	if !ok {
		return invalidFormat()
	}
	if strings.TrimSpace(text) == "" {
		return Result{Feedback: FeedbackNoAnswer}
	}
	fb := FeedbackManual
	words := wordCount(text)
	switch {
	case minWords > 0 && words < minWords:
		fb += fmt.Sprintf(" It is shorter than the %d word minimum.", minWords)
	case maxWords > 0 && words > maxWords:
		fb += fmt.Sprintf(" It is longer than the %d word maximum.", maxWords)
	}
	return Result{Feedback: fb, PendingReview: true}
}

func optionText(options []domain.Option, id string) string {
	for _, o := range options {
		if o.ID == id {
			return o.Text
		}
	}
	return id
}
