package authoring

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quiz-engine/internal/domain"
)

// documentVersion is bumped whenever the export layout changes.
const documentVersion = 1

// Document is the portable form of a quiz. It carries no quiz id, owner,
// status or timestamps.
type Document struct {
	Version     int              `json:"version"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Subject     string           `json:"subject,omitempty"`
	Settings    domain.Settings  `json:"settings"`
	Questions   domain.Questions `json:"questions"`
	AnswerKeys  bool             `json:"answerKeys"`
}

// ExportJSON encodes quiz as a Document. Without includeAnswers every
// question is stripped of its answer key.
func ExportJSON(quiz domain.Quiz, includeAnswers bool) ([]byte, error) {
	questions := make(domain.Questions, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if includeAnswers {
			questions[i] = q
		} else {
			questions[i] = q.WithoutAnswerKey()
		}
	}
	doc := Document{
		Version:     documentVersion,
		Title:       quiz.Title,
		Description: quiz.Description,
		Subject:     quiz.Subject,
		Settings:    quiz.Settings,
		Questions:   questions,
		AnswerKeys:  includeAnswers,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ImportJSON builds a new draft quiz owned by ownerID from an exported
// Document. Questions without ids get fresh ones. A document exported
// without answer keys cannot be graded and is refused.
func (a *Author) ImportJSON(data []byte, ownerID string) (domain.Quiz, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz document: %w", err)
	}
	if doc.Version > documentVersion {
		return domain.Quiz{}, fmt.Errorf("unsupported quiz document version %d", doc.Version)
	}
	if !doc.AnswerKeys {
		return domain.Quiz{}, fmt.Errorf("%w: %q", domain.ErrMissingAnswerKeys, doc.Title)
	}
	settings := doc.Settings
	quiz := a.CreateQuiz(CreateInput{
		Title:       doc.Title,
		Description: doc.Description,
		Subject:     doc.Subject,
		OwnerID:     ownerID,
		Settings:    &settings,
	})
	for _, q := range doc.Questions {
		var err error
		if quiz, err = a.AddQuestion(quiz, q); err != nil {
			return domain.Quiz{}, fmt.Errorf("import question: %w", err)
		}
	}
	return quiz, nil
}

var csvHeader = []string{"id", "type", "prompt", "difficulty", "points", "topic", "choices", "answer", "explanation"}

// ExportQuestionsCSV writes one row per question. List cells are joined
// with " | ".
func ExportQuestionsCSV(w io.Writer, quiz domain.Quiz) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, q := range quiz.Questions {
		b := q.Base()
		choices, answer := csvCells(q)
		row := []string{
			b.ID,
			string(q.Type()),
			b.Prompt,
			string(b.Difficulty),
			strconv.FormatFloat(b.Points, 'f', -1, 64),
			b.Topic,
			choices,
			answer,
			b.Explanation,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvCells(q domain.Question) (choices, answer string) {
	join := func(items []string) string { return strings.Join(items, " | ") }
	switch q := q.(type) {
	case domain.MultipleChoice:
		return join(optionTexts(q.Options)), optionTextByID(q.Options, q.CorrectAnswer)
	case domain.MultipleSelect:
		picked := make([]string, len(q.CorrectAnswers))
		for i, id := range q.CorrectAnswers {
			picked[i] = optionTextByID(q.Options, id)
		}
		return join(optionTexts(q.Options)), join(picked)
	case domain.TrueFalse:
		return "true | false", strconv.FormatBool(q.CorrectAnswer)
	case domain.FillBlank:
		keys := make([]string, len(q.Blanks))
		for i, b := range q.Blanks {
			keys[i] = b.CorrectAnswer
		}
		return q.Text, join(keys)
	case domain.ShortAnswer:
		return join(q.Keywords), join(append([]string{q.CorrectAnswer}, q.AcceptableAnswers...))
	case domain.Matching:
		left := make([]string, len(q.Pairs))
		pairs := make([]string, len(q.Pairs))
		for i, p := range q.Pairs {
			left[i] = p.Left
			pairs[i] = p.Left + " = " + p.Right
		}
		return join(left), join(pairs)
	case domain.Ordering:
		texts := make([]string, len(q.Items))
		for i, it := range q.Items {
			texts[i] = it.Text
		}
		ordered := make([]string, len(q.CorrectOrder))
		for i, id := range q.CorrectOrder {
			for _, it := range q.Items {
				if it.ID == id {
					ordered[i] = it.Text
				}
			}
		}
		return join(texts), join(ordered)
	case domain.Calculation:
		ans := strconv.FormatFloat(q.CorrectAnswer, 'f', -1, 64)
		if q.Units != "" {
			ans += " " + q.Units
		}
		return "", ans
	case domain.DiagramLabeling:
		keys := make([]string, len(q.Labels))
		for i, l := range q.Labels {
			keys[i] = l.CorrectAnswer
		}
		return q.ImageURL, join(keys)
	case domain.Essay:
		return "", ""
	case domain.CaseStudy:
		return q.Scenario, ""
	}
	return "", ""
}

func optionTexts(opts []domain.Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Text
	}
	return out
}

func optionTextByID(opts []domain.Option, id string) string {
	for _, o := range opts {
		if o.ID == id {
			return o.Text
		}
	}
	return id
}
