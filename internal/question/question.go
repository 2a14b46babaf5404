package question

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Type string

const (
	TypeMCQ   Type = "mcq"
	TypeShort Type = "short"
	TypeLong  Type = "long"
	TypeImage Type = "image"
)

func (t Type) Valid() bool {
	switch t {
	case TypeMCQ, TypeShort, TypeLong, TypeImage:
		return true
	}
	return false
}

// Label is the human name shown next to a question.
func (t Type) Label() string {
	switch t {
	case TypeMCQ:
		return "MCQ"
	case TypeShort:
		return "Short Answer"
	case TypeLong:
		return "Long Answer"
	case TypeImage:
		return "Image-based"
	}
	return string(t)
}

type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerSingle
	AnswerMulti
	AnswerText
)

// Answer is the correct_answer field resolved once at decode time.
// The backend sends a number, an array of numbers or a string without a tag.
type Answer struct {
	Kind    AnswerKind
	Index   int
	Indices []int
	Text    string
}

func SingleIndex(i int) Answer { return Answer{Kind: AnswerSingle, Index: i} }
func MultiIndex(ix ...int) Answer { return Answer{Kind: AnswerMulti, Indices: append([]int{}, ix...)} }
func FreeText(s string) Answer { return Answer{Kind: AnswerText, Text: s} }
func (a Answer) IsZero() bool { return a.Kind == AnswerNone }
func (a Answer) String() string { return Letters(a) }

// Letters renders index answers as option letters. Free text is returned as-is.
func Letters(a Answer) string {
	switch a.Kind {
	case AnswerSingle:
		return Letter(a.Index)
	case AnswerMulti:
		parts := make([]string, 0, len(a.Indices))
		for _, i := range a.Indices {
			parts = append(parts, Letter(i))
		}
		return strings.Join(parts, ", ")
	case AnswerText:
		return a.Text
	}
	return ""
}

// Letter maps a zero-based option index to A, B, C... Indexes outside A-Z
// render as "?".
func Letter(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerSingle:
		return json.Marshal(a.Index)
	case AnswerMulti:
		if a.Indices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Indices)
	case AnswerText:
		return json.Marshal(a.Text)
	}
	return []byte("null"), nil
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = Answer{}
		return nil
	}
	switch b[0] {
	case '[':
		var ix []int
		if err := json.Unmarshal(b, &ix); err != nil {
			return fmt.Errorf("correct_answer: %w", err)
		}
		if ix == nil {
			ix = []int{}
		}
		*a = Answer{Kind: AnswerMulti, Indices: ix}
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("correct_answer: %w", err)
		}
		*a = FreeText(s)
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return fmt.Errorf("correct_answer: %w", err)
		}
		if f != float64(int(f)) {
			return fmt.Errorf("correct_answer: index %v is not an integer", f)
		}
		*a = SingleIndex(int(f))
	}
	return nil
}

// UnmarshalYAML accepts the same three shapes as the JSON form.
func (a *Answer) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return a.UnmarshalJSON(b)
}

type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Type          Type     `json:"type" yaml:"type"`
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options,omitempty" yaml:"options"`
	CorrectAnswer Answer   `json:"correct_answer" yaml:"correct_answer"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
	Images        []string `json:"images,omitempty" yaml:"images"`
	Difficulty    string   `json:"difficulty,omitempty" yaml:"difficulty"`
	Marks         int      `json:"marks" yaml:"marks"`
	TopicID       string   `json:"topic_id,omitempty" yaml:"topic_id"`
	UserID        string   `json:"user_id,omitempty" yaml:"user_id"`
	CreatedAt     string   `json:"created_at,omitempty" yaml:"created_at"`
}

// Image returns the first image; later ones are never displayed.
func (q Question) Image() (string, bool) {
	if len(q.Images) == 0 || q.Images[0] == "" {
		return "", false
	}
	return q.Images[0], true
}

func (q Question) HasOptions() bool { return len(q.Options) > 0 }

// ListsOptions reports whether exports print lettered options; only
// multiple-choice questions do.
func (q Question) ListsOptions() bool { return q.Type == TypeMCQ && q.HasOptions() }

// MarksLabel formats "(1 mark)" / "(3 marks)".
func (q Question) MarksLabel() string {
	if q.Marks > 1 {
		return fmt.Sprintf("(%d marks)", q.Marks)
	}
	return fmt.Sprintf("(%d mark)", q.Marks)
}

var (
	ErrMissingID    = errors.New("question id is required")
	ErrUnknownType  = errors.New("unknown question type")
	ErrInvalidMarks = errors.New("marks must be a positive integer")
	ErrAnswerIndex  = errors.New("correct answer references a missing option")
)

func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return ErrMissingID
	}
	if !q.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, q.Type)
	}
	if q.Marks < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidMarks, q.Marks)
	}
	if !q.HasOptions() {
		return nil
	}
	check := func(i int) error {
		if i < 0 || i >= len(q.Options) {
			return fmt.Errorf("%w: index %d, %d options", ErrAnswerIndex, i, len(q.Options))
		}
		return nil
	}
	switch q.CorrectAnswer.Kind {
	case AnswerSingle:
		return check(q.CorrectAnswer.Index)
	case AnswerMulti:
		for _, i := range q.CorrectAnswer.Indices {
			if err := check(i); err != nil {
				return err
			}
		}
	}
	return nil
}
