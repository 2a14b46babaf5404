package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-worksheets/internal/backend"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

func TestLetterAndMessage(t *testing.T) {
	cases := []struct {
		pct    int
		letter string
		msg    string
	}{
		{100, "A+", "Outstanding!"},
		{90, "A+", "Outstanding!"},
		{89, "A", "Good job!"},
		{80, "A", "Good job!"},
		{70, "B", "Good job!"},
		{69, "C", "Keep practicing!"},
		{50, "D", "Keep practicing!"},
		{49, "F", "Needs improvement"},
		{0, "F", "Needs improvement"},
	}
	for _, c := range cases {
		assert.Equal(t, c.letter, Letter(c.pct), "pct %d", c.pct)
		assert.Equal(t, c.msg, Message(c.pct), "pct %d", c.pct)
	}
}

func mcq(id string, key question.Answer) question.Question {
	return question.Question{ID: id, Type: question.TypeMCQ, Text: id, Options: []string{"2", "3", "4"}, CorrectAnswer: key, Marks: 1}
}

func TestDescribe(t *testing.T) {
	q := mcq("q", question.SingleIndex(1))
	assert.Equal(t, "B. 3", Describe(q, question.SingleIndex(1)))
	assert.Equal(t, "E", Describe(q, question.SingleIndex(4)))
	assert.Equal(t, "A, C", Describe(q, question.MultiIndex(0, 2)))
	assert.Equal(t, "No answer", Describe(q, question.MultiIndex()))
	assert.Equal(t, "photosynthesis", Describe(q, question.FreeText("photosynthesis")))
	assert.Equal(t, "No answer", Describe(q, question.Answer{}))
}

func TestBuildKeepsQuestionOrder(t *testing.T) {
	qs := []question.Question{mcq("q1", question.SingleIndex(0)), mcq("q2", question.SingleIndex(2)), mcq("q3", question.MultiIndex(0, 1))}
	res := backend.QuizResult{WorksheetID: "ws-1", TotalQuestions: 3, CorrectAnswers: 2, ScorePercentage: 66}
	answers := []backend.QuizAnswer{
		{QuestionID: "q2", UserAnswer: question.SingleIndex(2), IsCorrect: true},
		{QuestionID: "q1", UserAnswer: question.SingleIndex(0), IsCorrect: true},
	}
	r := Build(qs, res, answers)
	assert.Equal(t, "C", r.Letter)
	assert.Equal(t, "Keep practicing!", r.Message)
	require.Len(t, r.Items, 3)
	assert.Equal(t, []string{"q1", "q2", "q3"}, []string{r.Items[0].Question.ID, r.Items[1].Question.ID, r.Items[2].Question.ID})
	assert.True(t, r.Items[1].OK)
	assert.Equal(t, "C. 4", r.Items[1].Yours)
	assert.False(t, r.Items[2].Answered)
	assert.Equal(t, "No answer", r.Items[2].Yours)
	assert.Equal(t, "A, B", r.Items[2].Correct)
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)
	r, ok := Latest([]backend.QuizResult{{ID: "old"}, {ID: "new"}})
	require.True(t, ok)
	assert.Equal(t, "new", r.ID)
}

func TestScore(t *testing.T) {
	qs := []question.Question{
		mcq("q1", question.SingleIndex(0)),
		mcq("q2", question.MultiIndex(0, 2)),
		mcq("q3", question.SingleIndex(1)),
		{ID: "q4", Type: question.TypeShort, Text: "x", CorrectAnswer: question.FreeText("Photosynthesis"), Marks: 2},
		{ID: "q5", Type: question.TypeShort, Text: "y", CorrectAnswer: question.FreeText("7"), Marks: 1},
	}
	res := Score(qs, map[string]question.Answer{
		"q1": question.SingleIndex(0),
		"q2": question.MultiIndex(2, 0),
		"q3": question.MultiIndex(1, 2),
		"q4": question.FreeText("  photosynthesis. "),
	})
	assert.Equal(t, 5, res.TotalQuestions)
	assert.Equal(t, 3, res.CorrectAnswers)
	assert.Equal(t, 60, res.ScorePercentage)
}

func TestMatchesSingleAgainstMulti(t *testing.T) {
	assert.True(t, Matches(question.SingleIndex(1), question.MultiIndex(1)))
	assert.False(t, Matches(question.MultiIndex(1), question.Answer{}))
}

func TestTextMatches(t *testing.T) {
	cases := []struct {
		key, got string
		want     bool
	}{
		{"Photosynthesis", "photosynthesis", true},
		{"Photosynthesis", "photosynthesys", true},
		{"Photosynthesis", "photo synthesis", true},
		{"Photosynthesis", "fotosynthesys", false},
		{"The Nile", "the  nile!", true},
		{"7", "8", false},
		{"7", "7.", true},
		{"cat", "cut", false},
		{"", "", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TextMatches(c.key, c.got), "%q vs %q", c.key, c.got)
	}
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
