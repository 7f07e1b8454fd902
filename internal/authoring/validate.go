package authoring

import (
	"fmt"
	"math"
	"strings"

	"quiz-engine/internal/domain"
)

// ValidationError describes one structural problem with a quiz.
type ValidationError struct {
	Field      string `json:"field"`
	QuestionID string `json:"questionId,omitempty"`
	Message    string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("question %s: %s: %s", e.QuestionID, e.Field, e.Message)
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors is the full list of problems found in a quiz.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "quiz is invalid: " + strings.Join(msgs, "; ")
}

// ValidateQuiz checks that quiz could be published. An empty result means
// it is valid.
func ValidateQuiz(quiz domain.Quiz) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(quiz.Title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	}
	if len(quiz.Questions) == 0 {
		errs = append(errs, ValidationError{Field: "questions", Message: "at least one question is required"})
	}
	errs = append(errs, validateSettings(quiz.Settings)...)

	seen := make(map[string]bool, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if q == nil {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("questions[%d]", i), Message: "question is missing"})
			continue
		}
		id := q.Base().ID
		if id != "" && seen[id] {
			errs = append(errs, ValidationError{Field: "id", QuestionID: id, Message: "question id is used more than once"})
		}
		seen[id] = true
		errs = append(errs, ValidateQuestion(q)...)
	}
	return errs
}

func validateSettings(s domain.Settings) ValidationErrors {
	var errs ValidationErrors
	if s.PassingScore < 0 || s.PassingScore > 100 {
		errs = append(errs, ValidationError{Field: "settings.passingScore", Message: "must be between 0 and 100"})
	}
	if s.TimeLimit < 0 {
		errs = append(errs, ValidationError{Field: "settings.timeLimit", Message: "must not be negative"})
	}
	if s.MaxAttempts < 0 {
		errs = append(errs, ValidationError{Field: "settings.maxAttempts", Message: "must not be negative"})
	}
	return errs
}

// ValidateQuestion applies the shared and per-variant structural rules.
func ValidateQuestion(q domain.Question) ValidationErrors {
	b := q.Base()
	v := &collector{qid: b.ID}
	if b.ID == "" {
		v.add("id", "id is required")
	}
	if strings.TrimSpace(b.Prompt) == "" {
		v.add("prompt", "prompt is required")
	}
	if !(b.Points > 0) || math.IsInf(b.Points, 0) {
		v.add("points", "points must be a positive number")
	}
	if b.Difficulty != "" && !b.Difficulty.Valid() {
		v.add("difficulty", fmt.Sprintf("unknown difficulty %q", b.Difficulty))
	}
	if b.TimeEstimate < 0 {
		v.add("timeEstimate", "must not be negative")
	}

	switch q := q.(type) {
	case domain.MultipleChoice:
		ids := v.options(q.Options)
		if q.CorrectAnswer == "" {
			v.add("correctAnswer", "a correct answer is required")
		} else if !ids[q.CorrectAnswer] {
			v.add("correctAnswer", "correct answer must be one of the options")
		}
	case domain.MultipleSelect:
		ids := v.options(q.Options)
		if len(q.CorrectAnswers) == 0 {
			v.add("correctAnswers", "at least one correct answer is required")
		}
		for _, c := range q.CorrectAnswers {
			if !ids[c] {
				v.add("correctAnswers", fmt.Sprintf("%q is not one of the options", c))
			}
		}
	case domain.TrueFalse:
	case domain.FillBlank:
		if len(q.Blanks) == 0 {
			v.add("blanks", "at least one blank is required")
		}
		for i, bl := range q.Blanks {
			v.unit(fmt.Sprintf("blanks[%d]", i), bl.ID, bl.CorrectAnswer)
		}
	case domain.ShortAnswer:
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			v.add("correctAnswer", "a correct answer is required")
		}
		if q.MaxLength < 0 {
			v.add("maxLength", "must not be negative")
		}
	case domain.Matching:
		if len(q.Pairs) == 0 {
			v.add("pairs", "at least one pair is required")
		}
		for i, p := range q.Pairs {
			v.unit(fmt.Sprintf("pairs[%d]", i), p.ID, p.Right)
			if strings.TrimSpace(p.Left) == "" {
				v.add(fmt.Sprintf("pairs[%d].left", i), "left side is required")
			}
		}
	case domain.Ordering:
		if len(q.Items) < 2 {
			v.add("items", "at least two items are required")
		}
		items := make(map[string]bool, len(q.Items))
		for _, it := range q.Items {
			items[it.ID] = true
		}
		if len(q.CorrectOrder) > 0 && !samePermutation(q.CorrectOrder, items) {
			v.add("correctOrder", "correct order must list every item exactly once")
		}
	case domain.Essay:
		v.wordBounds(q.MinWords, q.MaxWords)
	case domain.Calculation:
		if math.IsNaN(q.CorrectAnswer) || math.IsInf(q.CorrectAnswer, 0) {
			v.add("correctAnswer", "must be a finite number")
		}
		if q.Tolerance != nil && (*q.Tolerance < 0 || math.IsNaN(*q.Tolerance)) {
			v.add("tolerance", "must not be negative")
		}
	case domain.DiagramLabeling:
		if len(q.Labels) == 0 {
			v.add("labels", "at least one label is required")
		}
		for i, l := range q.Labels {
			v.unit(fmt.Sprintf("labels[%d]", i), l.ID, l.CorrectAnswer)
		}
	case domain.CaseStudy:
		if strings.TrimSpace(q.Scenario) == "" {
			v.add("scenario", "scenario is required")
		}
		v.wordBounds(q.MinWords, q.MaxWords)
	default:
		v.add("type", fmt.Sprintf("unsupported question type %q", q.Type()))
	}
	return v.errs
}

type collector struct {
	qid  string
	errs ValidationErrors
}

func (c *collector) add(field, msg string) {
	c.errs = append(c.errs, ValidationError{Field: field, QuestionID: c.qid, Message: msg})
}

func (c *collector) options(opts []domain.Option) map[string]bool {
	if len(opts) < 2 {
		c.add("options", "at least two options are required")
	}
	ids := make(map[string]bool, len(opts))
	for i, o := range opts {
		if o.ID == "" {
			c.add(fmt.Sprintf("options[%d].id", i), "option id is required")
		} else if ids[o.ID] {
			c.add(fmt.Sprintf("options[%d].id", i), "option id is used more than once")
		}
		if strings.TrimSpace(o.Text) == "" {
			c.add(fmt.Sprintf("options[%d].text", i), "option text is required")
		}
		ids[o.ID] = true
	}
	return ids
}

func (c *collector) unit(field, id, key string) {
	if id == "" {
		c.add(field+".id", "id is required")
	}
	if strings.TrimSpace(key) == "" {
		c.add(field, "an answer is required")
	}
}

func (c *collector) wordBounds(min, max int) {
	if min < 0 || max < 0 {
		c.add("words", "word limits must not be negative")
	}
	if max > 0 && min > max {
		c.add("words", "minimum words exceed maximum words")
	}
}

func samePermutation(order []string, items map[string]bool) bool {
	if len(order) != len(items) {
		return false
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !items[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
