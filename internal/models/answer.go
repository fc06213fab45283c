package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// AnswerValue is the typed payload recorded for one question. The concrete
// type always matches the question's declared QuestionType.
type AnswerValue interface {
	QuestionType() QuestionType
	IsEmpty() bool
	isAnswerValue()
}

// SingleAnswer holds a selected option index; nil means no answer.
type SingleAnswer struct {
	Index *int
}

// MultipleAnswer holds a set of selected option indices kept sorted ascending.
type MultipleAnswer struct {
	Indices []int
}

// TextAnswer holds the learner's raw input, never trimmed or folded at storage time.
type TextAnswer struct {
	Text string
}

func (SingleAnswer) QuestionType() QuestionType   { return QuestionSingle }
func (MultipleAnswer) QuestionType() QuestionType { return QuestionMultiple }
func (TextAnswer) QuestionType() QuestionType     { return QuestionText }

func (a SingleAnswer) IsEmpty() bool   { return a.Index == nil }
func (a MultipleAnswer) IsEmpty() bool { return len(a.Indices) == 0 }
func (a TextAnswer) IsEmpty() bool     { return a.Text == "" }

func (SingleAnswer) isAnswerValue()   {}
func (MultipleAnswer) isAnswerValue() {}
func (TextAnswer) isAnswerValue()     {}

// NewSingleAnswer returns a SingleAnswer selecting index.
func NewSingleAnswer(index int) SingleAnswer {
	return SingleAnswer{Index: &index}
}

// NewMultipleAnswer builds a de-duplicated, sorted selection.
func NewMultipleAnswer(indices ...int) MultipleAnswer {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return MultipleAnswer{Indices: out}
}

// Toggle adds index when absent and removes it when present.
func (a MultipleAnswer) Toggle(index int) MultipleAnswer {
	out := make([]int, 0, len(a.Indices)+1)
	found := false
	for _, idx := range a.Indices {
		if idx == index {
			found = true
			continue
		}
		out = append(out, idx)
	}
	if !found {
		out = append(out, index)
	}
	sort.Ints(out)
	return MultipleAnswer{Indices: out}
}

// Contains reports whether index is selected.
func (a MultipleAnswer) Contains(index int) bool {
	for _, idx := range a.Indices {
		if idx == index {
			return true
		}
	}
	return false
}

// EmptyAnswer returns the "no answer" value for a question type:
// nil index for single, empty set for multiple, empty string for text.
func EmptyAnswer(t QuestionType) AnswerValue {
	switch t {
	case QuestionMultiple:
		return MultipleAnswer{Indices: []int{}}
	case QuestionText:
		return TextAnswer{}
	default:
		return SingleAnswer{}
	}
}

// CloneAnswer returns a copy that shares no memory with v.
func CloneAnswer(v AnswerValue) AnswerValue {
	switch a := v.(type) {
	case SingleAnswer:
		if a.Index == nil {
			return SingleAnswer{}
		}
		return NewSingleAnswer(*a.Index)
	case MultipleAnswer:
		out := make([]int, len(a.Indices))
		copy(out, a.Indices)
		return MultipleAnswer{Indices: out}
	case TextAnswer:
		return a
	default:
		return v
	}
}

// ===== JSON =====

func (a SingleAnswer) MarshalJSON() ([]byte, error) {
	if a.Index == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*a.Index)
}

func (a MultipleAnswer) MarshalJSON() ([]byte, error) {
	if a.Indices == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.Indices)
}

func (a TextAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Text)
}

// DecodeAnswer decodes a wire value according to the question's declared type:
// an index or null for single, an index array for multiple, a string for text.
func DecodeAnswer(t QuestionType, raw json.RawMessage) (AnswerValue, error) {
	trimmed := bytes.TrimSpace(raw)
	isNull := len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))

	switch t {
	case QuestionSingle:
		if isNull {
			return SingleAnswer{}, nil
		}
		var idx int
		if err := json.Unmarshal(trimmed, &idx); err != nil {
			return nil, fmt.Errorf("single answer must be an option index: %w", err)
		}
		return NewSingleAnswer(idx), nil
	case QuestionMultiple:
		if isNull {
			return EmptyAnswer(QuestionMultiple), nil
		}
		var indices []int
		if err := json.Unmarshal(trimmed, &indices); err != nil {
			return nil, fmt.Errorf("multiple answer must be an array of option indices: %w", err)
		}
		return NewMultipleAnswer(indices...), nil
	case QuestionText:
		if isNull {
			return TextAnswer{}, nil
		}
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, fmt.Errorf("text answer must be a string: %w", err)
		}
		return TextAnswer{Text: text}, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", t)
	}
}

// AnswerPayload is the wire shape of a full answer record: question id -> typed value.
type AnswerPayload map[string]AnswerValue

// DecodeAnswerPayload decodes raw values using the question set for type dispatch.
// Unknown question ids are rejected.
func DecodeAnswerPayload(questions []Question, raw map[string]json.RawMessage) (AnswerPayload, error) {
	types := make(map[string]QuestionType, len(questions))
	for _, q := range questions {
		types[q.ID] = q.Type
	}

	out := make(AnswerPayload, len(raw))
	for id, value := range raw {
		qt, ok := types[id]
		if !ok {
			return nil, fmt.Errorf("unknown question %q", id)
		}
		v, err := DecodeAnswer(qt, value)
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", id, err)
		}
		out[id] = v
	}
	return out, nil
}
