package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func sampleQuestions() Questions {
	tol := 0.5
	base := func(id string) QuestionBase {
		return QuestionBase{ID: id, Prompt: "prompt " + id, Difficulty: DifficultyMedium, Points: 2, Topic: "t"}
	}
	return Questions{
		MultipleChoice{QuestionBase: base("mc"), Options: []Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}}, CorrectAnswer: "b"},
		MultipleSelect{QuestionBase: base("ms"), Options: []Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}}, CorrectAnswers: []string{"a"}, PartialCredit: true},
		TrueFalse{QuestionBase: base("tf"), CorrectAnswer: true},
		FillBlank{QuestionBase: base("fb"), Text: "Go was made at {{b1}}", Blanks: []Blank{{ID: "b1", CorrectAnswer: "Google"}}},
		ShortAnswer{QuestionBase: base("sa"), CorrectAnswer: "gopher", Keywords: []string{"go"}},
		Matching{QuestionBase: base("mt"), Pairs: []MatchPair{{ID: "p1", Left: "1", Right: "one"}}},
		Ordering{QuestionBase: base("or"), Items: []OrderItem{{ID: "i1", Text: "z"}, {ID: "i2", Text: "a"}}, CorrectOrder: []string{"i1", "i2"}},
		Essay{QuestionBase: base("es"), MinWords: 10, MaxWords: 200},
		Calculation{QuestionBase: base("ca"), CorrectAnswer: 9.81, Tolerance: &tol, Units: "m/s2"},
		DiagramLabeling{QuestionBase: base("dl"), ImageURL: "x.png", Labels: []DiagramLabel{{ID: "l1", X: 1, Y: 2, CorrectAnswer: "heart"}}},
		CaseStudy{QuestionBase: base("cs"), Scenario: "a company"},
	}
}

func TestQuestionsRoundTripEveryVariant(t *testing.T) {
	qs := sampleQuestions()
	if len(qs) != len(QuestionTypes) {
		t.Fatalf("sample must cover every variant: %d vs %d", len(qs), len(QuestionTypes))
	}
	data, err := json.Marshal(qs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Questions
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(qs, back) {
		t.Fatalf("round trip mismatch:\nwant %#v\ngot  %#v", qs, back)
	}
	for i, q := range back {
		if q.Type() != QuestionTypes[i] {
			t.Errorf("question %d: expected %s, got %s", i, QuestionTypes[i], q.Type())
		}
	}

	again, _ := json.Marshal(back)
	if string(again) != string(data) {
		t.Fatalf("encoding is not stable")
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := UnmarshalQuestion([]byte(`{"type":"hotspot","id":"x"}`))
	if !errors.Is(err, ErrUnknownQuestionType) {
		t.Fatalf("expected ErrUnknownQuestionType, got %v", err)
	}
}

func TestWithoutAnswerKey(t *testing.T) {
	for _, q := range sampleQuestions() {
		safe := q.WithoutAnswerKey()
		if safe.Base().ID != q.Base().ID || safe.Type() != q.Type() {
			t.Fatalf("%s: identity changed", q.Type())
		}
		switch s := safe.(type) {
		case MultipleChoice:
			if s.CorrectAnswer != "" {
				t.Errorf("mc key leaked")
			}
		case MultipleSelect:
			if len(s.CorrectAnswers) != 0 {
				t.Errorf("ms key leaked")
			}
		case FillBlank:
			if s.Blanks[0].CorrectAnswer != "" {
				t.Errorf("blank key leaked")
			}
		case Matching:
			if s.Pairs[0].Right != "" || len(s.Choices) != 1 {
				t.Errorf("matching not detached: %+v", s)
			}
		case Ordering:
			if s.CorrectOrder != nil || s.Items[0].ID != "i2" {
				t.Errorf("ordering not hidden: %+v", s)
			}
		case Calculation:
			if s.CorrectAnswer != 0 || s.Tolerance != nil {
				t.Errorf("calculation key leaked")
			}
		}
	}
}

func TestSnapshotInsideResult(t *testing.T) {
	res := QuestionResult{QuestionID: "tf", Question: QuestionSnapshot{TrueFalse{QuestionBase: QuestionBase{ID: "tf", Points: 1}, CorrectAnswer: true}}, Answer: true}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back QuestionResult
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	tf, ok := back.Question.Question.(TrueFalse)
	if !ok || !tf.CorrectAnswer {
		t.Fatalf("unexpected snapshot %#v", back.Question.Question)
	}
}

func TestQuizStatsRecord(t *testing.T) {
	s := QuizStats{}.Record(80, 100).Record(60, 200)
	if s.AttemptCount != 2 || s.AverageScore != 70 || s.AverageTimeSpent != 150 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestRoundingHelpers(t *testing.T) {
	if got := Round2(3.14159); got != 3.14 {
		t.Errorf("Round2 = %v", got)
	}
	if got := Round2(0.125); got != 0.13 {
		t.Errorf("Round2 half = %v", got)
	}
	if got := Percentage(1, 3); got != 33 {
		t.Errorf("Percentage = %d", got)
	}
	if got := Percentage(2, 0); got != 0 {
		t.Errorf("Percentage with zero max = %d", got)
	}
}
