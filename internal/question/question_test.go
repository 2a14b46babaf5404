package question

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Answer
	}{
		{"number", `1`, SingleIndex(1)},
		{"array", `[0, 2]`, MultiIndex(0, 2)},
		{"empty array", `[]`, MultiIndex()},
		{"string", `"x = 2"`, FreeText("x = 2")},
		{"null", `null`, Answer{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Answer
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnswerDecodeRejectsFraction(t *testing.T) {
	var a Answer
	require.Error(t, json.Unmarshal([]byte(`1.5`), &a))
}

func TestAnswerEncodeKeepsShape(t *testing.T) {
	b, err := json.Marshal(struct {
		A Answer `json:"a"`
		B Answer `json:"b"`
		C Answer `json:"c"`
		D Answer `json:"d"`
	}{SingleIndex(2), MultiIndex(), FreeText("hi"), Answer{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2,"b":[],"c":"hi","d":null}`, string(b))
}

func TestQuestionFromBackendJSON(t *testing.T) {
	raw := `{"id":"q1","type":"mcq","text":"Pick","options":["A","B","C"],
		"correct_answer":[0,2],"explanation":"","images":[],"marks":2,"difficulty":"easy"}`
	var q Question
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	assert.Equal(t, AnswerMulti, q.CorrectAnswer.Kind)
	assert.Equal(t, "A, C", Letters(q.CorrectAnswer))
	require.NoError(t, q.Validate())
	_, ok := q.Image()
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	base := Question{ID: "q", Type: TypeMCQ, Options: []string{"a", "b"}, Marks: 1, CorrectAnswer: SingleIndex(1)}
	require.NoError(t, base.Validate())

	bad := base
	bad.CorrectAnswer = SingleIndex(2)
	assert.True(t, errors.Is(bad.Validate(), ErrAnswerIndex))

	bad = base
	bad.CorrectAnswer = MultiIndex(0, 5)
	assert.True(t, errors.Is(bad.Validate(), ErrAnswerIndex))

	bad = base
	bad.Marks = 0
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidMarks))

	bad = base
	bad.Type = "essay"
	assert.True(t, errors.Is(bad.Validate(), ErrUnknownType))

	bad = base
	bad.ID = " "
	assert.True(t, errors.Is(bad.Validate(), ErrMissingID))
}

func TestLetter(t *testing.T) {
	assert.Equal(t, "A", Letter(0))
	assert.Equal(t, "Z", Letter(25))
	assert.Equal(t, "?", Letter(26))
	assert.Equal(t, "?", Letter(-1))
	assert.Equal(t, "A, ?", Letters(MultiIndex(0, 30)))
}

func TestMarksLabel(t *testing.T) {
	assert.Equal(t, "(1 mark)", Question{Marks: 1}.MarksLabel())
	assert.Equal(t, "(3 marks)", Question{Marks: 3}.MarksLabel())
}

func ids(n ...string) []Question {
	out := make([]Question, len(n))
	for i, id := range n {
		out[i] = Question{ID: id, Marks: i + 1}
	}
	return out
}

func TestMoveIsStable(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 3, []string{"b", "c", "d", "a", "e"}},
		{"backward", 4, 1, []string{"a", "e", "b", "c", "d"}},
		{"same", 2, 2, []string{"a", "b", "c", "d", "e"}},
		{"adjacent", 1, 2, []string{"a", "c", "b", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ids("a", "b", "c", "d", "e")
			got, err := Move(in, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, IDs(got))
			assert.Equal(t, []string{"a", "b", "c", "d", "e"}, IDs(in), "input must be untouched")
		})
	}
}

func TestMoveOutOfRange(t *testing.T) {
	_, err := Move(ids("a"), 0, 1)
	require.Error(t, err)
}

func TestMoveByID(t *testing.T) {
	got, err := MoveByID(ids("a", "b", "c"), "c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, IDs(got))

	_, err = MoveByID(ids("a"), "zz", "a")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReorder(t *testing.T) {
	got, err := Reorder(ids("a", "b", "c"), []string{"b", "c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, IDs(got))

	_, err = Reorder(ids("a", "b"), []string{"a", "a"})
	require.Error(t, err)
	_, err = Reorder(ids("a", "b"), []string{"a"})
	require.Error(t, err)
}

func TestApplyEdit(t *testing.T) {
	qs := []Question{{ID: "q1", Text: "old", Options: []string{"x", "y"}}}
	text := "new"
	got, err := Apply(qs, "q1", Edit{Text: &text, Options: []string{"x2", "y2"}})
	require.NoError(t, err)
	assert.Equal(t, "new", got[0].Text)
	assert.Equal(t, []string{"x2", "y2"}, got[0].Options)
	assert.Equal(t, "old", qs[0].Text)

	_, err = Apply(qs, "q1", Edit{Options: []string{"only one"}})
	require.Error(t, err)
}

func TestTotalMarks(t *testing.T) {
	assert.Equal(t, 6, TotalMarks(ids("a", "b", "c")))
	assert.Equal(t, 0, TotalMarks(nil))
}

func TestLoadSetYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.yaml")
	payload := `topic: Quadratic Equations
questions:
  - id: q1
    type: mcq
    text: "Solve $$x^2-4=0$$"
    options: ["2", "-2", "both"]
    correct_answer: 2
    marks: 1
  - id: q2
    type: short
    text: Explain the discriminant.
    correct_answer: "b^2-4ac"
    marks: 3
`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
	set, err := LoadSet(path)
	require.NoError(t, err)
	assert.Equal(t, "Quadratic Equations", set.Topic)
	require.Len(t, set.Questions, 2)
	assert.Equal(t, SingleIndex(2), set.Questions[0].CorrectAnswer)
	assert.Equal(t, FreeText("b^2-4ac"), set.Questions[1].CorrectAnswer)
}

func TestLoadSetJSONRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"topic":"t","extra":1,"questions":[]}`), 0o644))
	_, err := LoadSet(path)
	require.Error(t, err)
}

func TestLoadSetDuplicateID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.json")
	payload := `{"topic":"t","questions":[
		{"id":"q","type":"short","text":"a","marks":1},
		{"id":"q","type":"short","text":"b","marks":1}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
	_, err := LoadSet(path)
	require.ErrorContains(t, err, "duplicate id")
}
