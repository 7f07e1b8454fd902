package domain

import (
	"encoding/json"
	"fmt"
)

// MarshalQuestion encodes q as a flat JSON object with a "type" discriminator.
// Keys come out sorted, so the encoding of a given question is stable.
func MarshalQuestion(q Question) ([]byte, error) {
	if q == nil {
		return []byte("null"), nil
	}
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(q.Type())
	return json.Marshal(fields)
}

// UnmarshalQuestion decodes a question written by MarshalQuestion.
func UnmarshalQuestion(data []byte) (Question, error) {
	var head struct {
		Type QuestionType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case TypeMultipleChoice:
		return decodeAs[MultipleChoice](data)
	case TypeMultipleSelect:
		return decodeAs[MultipleSelect](data)
	case TypeTrueFalse:
		return decodeAs[TrueFalse](data)
	case TypeFillBlank:
		return decodeAs[FillBlank](data)
	case TypeShortAnswer:
		return decodeAs[ShortAnswer](data)
	case TypeMatching:
		return decodeAs[Matching](data)
	case TypeOrdering:
		return decodeAs[Ordering](data)
	case TypeEssay:
		return decodeAs[Essay](data)
	case TypeCalculation:
		return decodeAs[Calculation](data)
	case TypeDiagramLabel:
		return decodeAs[DiagramLabeling](data)
	case TypeCaseStudy:
		return decodeAs[CaseStudy](data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownQuestionType, head.Type)
}

func decodeAs[T Question](data []byte) (Question, error) {
	var q T
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return q, nil
}

// Questions is an ordered question list that round-trips through JSON.
type Questions []Question

func (qs Questions) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(qs))
	for _, q := range qs {
		b, err := MarshalQuestion(q)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	return json.Marshal(raw)
}

func (qs *Questions) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*qs = nil
		return nil
	}
	out := make(Questions, 0, len(raw))
	for _, r := range raw {
		q, err := UnmarshalQuestion(r)
		if err != nil {
			return err
		}
		out = append(out, q)
	}
	*qs = out
	return nil
}

// Find returns the question with the given id.
func (qs Questions) Find(id string) (Question, int, bool) {
	for i, q := range qs {
		if q.Base().ID == id {
			return q, i, true
		}
	}
	return nil, -1, false
}

// QuestionSnapshot wraps a question so it can be embedded in records that
// are themselves JSON encoded.
type QuestionSnapshot struct {
	Question
}

func (s QuestionSnapshot) MarshalJSON() ([]byte, error) {
	return MarshalQuestion(s.Question)
}

func (s *QuestionSnapshot) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		s.Question = nil
		return nil
	}
	q, err := UnmarshalQuestion(data)
	if err != nil {
		return err
	}
	s.Question = q
	return nil
}
