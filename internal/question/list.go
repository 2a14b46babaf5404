package question

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("question not found")

// TotalMarks sums marks over the list.
func TotalMarks(qs []Question) int {
	n := 0
	for _, q := range qs {
		n += q.Marks
	}
	return n
}

// Move relocates the element at from to index to. Every other element keeps
// its relative order. The input slice is not modified.
func Move(qs []Question, from, to int) ([]Question, error) {
	if from < 0 || from >= len(qs) || to < 0 || to >= len(qs) {
		return nil, fmt.Errorf("move %d -> %d: index out of range [0,%d)", from, to, len(qs))
	}
	out := make([]Question, 0, len(qs))
	moved := qs[from]
	for i, q := range qs {
		if i == from {
			continue
		}
		out = append(out, q)
	}
	out = append(out, Question{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out, nil
}

// MoveByID resolves the drag source and target by id.
func MoveByID(qs []Question, activeID, overID string) ([]Question, error) {
	from, to := IndexOf(qs, activeID), IndexOf(qs, overID)
	if from < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, activeID)
	}
	if to < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, overID)
	}
	return Move(qs, from, to)
}

// Reorder returns qs arranged in the order of ids. ids must be a permutation
// of the current ids.
func Reorder(qs []Question, ids []string) ([]Question, error) {
	if len(ids) != len(qs) {
		return nil, fmt.Errorf("reorder: got %d ids for %d questions", len(ids), len(qs))
	}
	byID := make(map[string]Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		delete(byID, id)
		out = append(out, q)
	}
	return out, nil
}

func IndexOf(qs []Question, id string) int {
	for i, q := range qs {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// Edit is a local change to the editable fields of one question. Nil fields
// are left as they are.
type Edit struct {
	Text        *string
	Options     []string
	Explanation *string
}

// Apply returns a copy of qs with the edit applied to the question with id.
func Apply(qs []Question, id string, e Edit) ([]Question, error) {
	i := IndexOf(qs, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := append([]Question(nil), qs...)
	q := out[i]
	if e.Text != nil {
		q.Text = *e.Text
	}
	if e.Options != nil {
		if len(e.Options) != len(q.Options) {
			return nil, fmt.Errorf("edit %s: %d options given, question has %d", id, len(e.Options), len(q.Options))
		}
		q.Options = append([]string(nil), e.Options...)
	}
	if e.Explanation != nil {
		q.Explanation = *e.Explanation
	}
	out[i] = q
	return out, nil
}

// IDs lists question ids in order.
func IDs(qs []Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
