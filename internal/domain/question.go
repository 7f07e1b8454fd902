package domain

import "sort"

// QuestionType tags a question variant.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeMultipleSelect QuestionType = "multiple_select"
	TypeTrueFalse      QuestionType = "true_false"
	TypeFillBlank      QuestionType = "fill_blank"
	TypeShortAnswer    QuestionType = "short_answer"
	TypeMatching       QuestionType = "matching"
	TypeOrdering       QuestionType = "ordering"
	TypeEssay          QuestionType = "essay"
	TypeCalculation    QuestionType = "calculation"
	TypeDiagramLabel   QuestionType = "diagram_label"
	TypeCaseStudy      QuestionType = "case_study"
)

// QuestionTypes lists every variant in declaration order.
var QuestionTypes = []QuestionType{
	TypeMultipleChoice,
	TypeMultipleSelect,
	TypeTrueFalse,
	TypeFillBlank,
	TypeShortAnswer,
	TypeMatching,
	TypeOrdering,
	TypeEssay,
	TypeCalculation,
	TypeDiagramLabel,
	TypeCaseStudy,
}

// Difficulty grades how hard a question is meant to be.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// Question is the closed set of question variants. Only types in this
// package implement it.
type Question interface {
	Base() QuestionBase
	Type() QuestionType
	// WithID returns a copy carrying a different identifier.
	WithID(id string) Question
	// WithoutAnswerKey returns a copy that is safe to show to a quiz taker.
	WithoutAnswerKey() Question
	isQuestion()
}

// QuestionBase holds the fields shared by every variant.
type QuestionBase struct {
	ID           string     `json:"id"`
	Prompt       string     `json:"prompt"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
	Points       float64    `json:"points"`
	TimeEstimate int        `json:"timeEstimate,omitempty"` // seconds
	Topic        string     `json:"topic,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Explanation  string     `json:"explanation,omitempty"`
	Hint         string     `json:"hint,omitempty"`
}

func (b QuestionBase) Base() QuestionBase { return b }

// Option is a selectable choice.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MultipleChoice struct {
	QuestionBase
	Options        []Option `json:"options"`
	CorrectAnswer  string   `json:"correctAnswer,omitempty"` // option id
	ShuffleOptions bool     `json:"shuffleOptions,omitempty"`
}

type MultipleSelect struct {
	QuestionBase
	Options        []Option `json:"options"`
	CorrectAnswers []string `json:"correctAnswers,omitempty"` // option ids
	PartialCredit  bool     `json:"partialCredit,omitempty"`
	ShuffleOptions bool     `json:"shuffleOptions,omitempty"`
}

type TrueFalse struct {
	QuestionBase
	CorrectAnswer bool `json:"correctAnswer"`
}

// Blank is one gap in a fill-blank template.
type Blank struct {
	ID                string   `json:"id"`
	CorrectAnswer     string   `json:"correctAnswer,omitempty"`
	AcceptableAnswers []string `json:"acceptableAnswers,omitempty"`
	CaseSensitive     bool     `json:"caseSensitive,omitempty"`
}

type FillBlank struct {
	QuestionBase
	Text   string  `json:"text"` // template, blanks marked with {{id}}
	Blanks []Blank `json:"blanks"`
}

type ShortAnswer struct {
	QuestionBase
	CorrectAnswer     string   `json:"correctAnswer,omitempty"`
	AcceptableAnswers []string `json:"acceptableAnswers,omitempty"`
	CaseSensitive     bool     `json:"caseSensitive,omitempty"`
	Keywords          []string `json:"keywords,omitempty"`
	MaxLength         int      `json:"maxLength,omitempty"`
}

// MatchPair links a left prompt to its right counterpart.
type MatchPair struct {
	ID    string `json:"id"`
	Left  string `json:"left"`
	Right string `json:"right,omitempty"`
}

type Matching struct {
	QuestionBase
	Pairs []MatchPair `json:"pairs"`
	// Choices is only set on answer-free copies, where pairs lose their right side.
	Choices        []string `json:"choices,omitempty"`
	ShuffleOptions bool     `json:"shuffleOptions,omitempty"`
}

// OrderItem is one element to be put in sequence.
type OrderItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Ordering struct {
	QuestionBase
	Items        []OrderItem `json:"items"`
	CorrectOrder []string    `json:"correctOrder,omitempty"` // item ids
}

type Essay struct {
	QuestionBase
	MinWords int      `json:"minWords,omitempty"`
	MaxWords int      `json:"maxWords,omitempty"`
	Rubric   []string `json:"rubric,omitempty"`
}

type Calculation struct {
	QuestionBase
	CorrectAnswer float64  `json:"correctAnswer"`
	Tolerance     *float64 `json:"tolerance,omitempty"`
	Units         string   `json:"units,omitempty"`
}

// DiagramLabel is one labelled hotspot on a diagram.
type DiagramLabel struct {
	ID                string   `json:"id"`
	X                 float64  `json:"x"`
	Y                 float64  `json:"y"`
	CorrectAnswer     string   `json:"correctAnswer,omitempty"`
	AcceptableAnswers []string `json:"acceptableAnswers,omitempty"`
	CaseSensitive     bool     `json:"caseSensitive,omitempty"`
}

type DiagramLabeling struct {
	QuestionBase
	ImageURL string         `json:"imageUrl"`
	Labels   []DiagramLabel `json:"labels"`
}

type CaseStudy struct {
	QuestionBase
	Scenario string   `json:"scenario"`
	MinWords int      `json:"minWords,omitempty"`
	MaxWords int      `json:"maxWords,omitempty"`
	Rubric   []string `json:"rubric,omitempty"`
}

func (MultipleChoice) Type() QuestionType  { return TypeMultipleChoice }
func (MultipleSelect) Type() QuestionType  { return TypeMultipleSelect }
func (TrueFalse) Type() QuestionType       { return TypeTrueFalse }
func (FillBlank) Type() QuestionType       { return TypeFillBlank }
func (ShortAnswer) Type() QuestionType     { return TypeShortAnswer }
func (Matching) Type() QuestionType        { return TypeMatching }
func (Ordering) Type() QuestionType        { return TypeOrdering }
func (Essay) Type() QuestionType           { return TypeEssay }
func (Calculation) Type() QuestionType     { return TypeCalculation }
func (DiagramLabeling) Type() QuestionType { return TypeDiagramLabel }
func (CaseStudy) Type() QuestionType       { return TypeCaseStudy }

func (MultipleChoice) isQuestion()  {}
func (MultipleSelect) isQuestion()  {}
func (TrueFalse) isQuestion()       {}
func (FillBlank) isQuestion()       {}
func (ShortAnswer) isQuestion()     {}
func (Matching) isQuestion()        {}
func (Ordering) isQuestion()        {}
func (Essay) isQuestion()           {}
func (Calculation) isQuestion()     {}
func (DiagramLabeling) isQuestion() {}
func (CaseStudy) isQuestion()       {}

func (q MultipleChoice) WithID(id string) Question  { q.ID = id; return q }
func (q MultipleSelect) WithID(id string) Question  { q.ID = id; return q }
func (q TrueFalse) WithID(id string) Question       { q.ID = id; return q }
func (q FillBlank) WithID(id string) Question       { q.ID = id; return q }
func (q ShortAnswer) WithID(id string) Question     { q.ID = id; return q }
func (q Matching) WithID(id string) Question        { q.ID = id; return q }
func (q Ordering) WithID(id string) Question        { q.ID = id; return q }
func (q Essay) WithID(id string) Question           { q.ID = id; return q }
func (q Calculation) WithID(id string) Question     { q.ID = id; return q }
func (q DiagramLabeling) WithID(id string) Question { q.ID = id; return q }
func (q CaseStudy) WithID(id string) Question       { q.ID = id; return q }

func (q MultipleChoice) WithoutAnswerKey() Question {
	q.CorrectAnswer = ""
	q.Explanation = ""
	return q
}

func (q MultipleSelect) WithoutAnswerKey() Question {
	q.CorrectAnswers = nil
	q.Explanation = ""
	return q
}

// WithoutAnswerKey cannot hide a boolean key; the explanation is dropped.
func (q TrueFalse) WithoutAnswerKey() Question {
	q.CorrectAnswer = false
	q.Explanation = ""
	return q
}

func (q FillBlank) WithoutAnswerKey() Question {
	blanks := make([]Blank, len(q.Blanks))
	for i, b := range q.Blanks {
		blanks[i] = Blank{ID: b.ID, CaseSensitive: b.CaseSensitive}
	}
	q.Blanks = blanks
	q.Explanation = ""
	return q
}

func (q ShortAnswer) WithoutAnswerKey() Question {
	q.CorrectAnswer = ""
	q.AcceptableAnswers = nil
	q.Keywords = nil
	q.Explanation = ""
	return q
}

// WithoutAnswerKey moves the right-hand texts into Choices, sorted so their
// position says nothing about the pairing.
func (q Matching) WithoutAnswerKey() Question {
	pairs := make([]MatchPair, len(q.Pairs))
	choices := make([]string, 0, len(q.Pairs))
	for i, p := range q.Pairs {
		pairs[i] = MatchPair{ID: p.ID, Left: p.Left}
		choices = append(choices, p.Right)
	}
	sort.Strings(choices)
	q.Pairs = pairs
	q.Choices = choices
	q.Explanation = ""
	return q
}

// WithoutAnswerKey also sorts items by text, since authors usually list them
// in the correct order.
func (q Ordering) WithoutAnswerKey() Question {
	items := append([]OrderItem(nil), q.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Text < items[j].Text })
	q.Items = items
	q.CorrectOrder = nil
	q.Explanation = ""
	return q
}

func (q Essay) WithoutAnswerKey() Question {
	q.Explanation = ""
	return q
}

func (q Calculation) WithoutAnswerKey() Question {
	q.CorrectAnswer = 0
	q.Tolerance = nil
	q.Explanation = ""
	return q
}

func (q DiagramLabeling) WithoutAnswerKey() Question {
	labels := make([]DiagramLabel, len(q.Labels))
	for i, l := range q.Labels {
		labels[i] = DiagramLabel{ID: l.ID, X: l.X, Y: l.Y, CaseSensitive: l.CaseSensitive}
	}
	q.Labels = labels
	q.Explanation = ""
	return q
}

func (q CaseStudy) WithoutAnswerKey() Question {
	q.Explanation = ""
	return q
}
