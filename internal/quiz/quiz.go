// Package quiz turns backend quiz results into what the results page shows.
package quiz

import (
	"github.com/mind-engage/mindengage-worksheets/internal/backend"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

// Letter maps a score percentage to a letter grade.
func Letter(pct int) string {
	switch {
	case pct >= 90:
		return "A+"
	case pct >= 80:
		return "A"
	case pct >= 70:
		return "B"
	case pct >= 60:
		return "C"
	case pct >= 50:
		return "D"
	default:
		return "F"
	}
}

func Message(pct int) string {
	switch {
	case pct >= 90:
		return "Outstanding!"
	case pct >= 70:
		return "Good job!"
	case pct >= 50:
		return "Keep practicing!"
	default:
		return "Needs improvement"
	}
}

// Describe renders an answer for display next to q: option letters plus the
// option text for single choices, the raw text for free answers.
func Describe(q question.Question, a question.Answer) string {
	switch a.Kind {
	case question.AnswerSingle:
		if a.Index >= 0 && a.Index < len(q.Options) {
			return question.Letter(a.Index) + ". " + q.Options[a.Index]
		}
		return question.Letter(a.Index)
	case question.AnswerMulti:
		if len(a.Indices) == 0 {
			return "No answer"
		}
		return question.Letters(a)
	case question.AnswerText:
		if a.Text != "" {
			return a.Text
		}
	}
	return "No answer"
}

// Item is one reviewed question.
type Item struct {
	Question question.Question
	Yours    string
	Correct  string
	OK       bool
	Answered bool
}

type Review struct {
	Result  backend.QuizResult
	Letter  string
	Message string
	Items   []Item
}

// Build pairs the submitted answers with the questions in display order.
// Questions the backend has no answer for are listed as unanswered.
func Build(qs []question.Question, res backend.QuizResult, answers []backend.QuizAnswer) Review {
	byID := make(map[string]backend.QuizAnswer, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}
	r := Review{
		Result:  res,
		Letter:  Letter(res.ScorePercentage),
		Message: Message(res.ScorePercentage),
		Items:   make([]Item, 0, len(qs)),
	}
	for _, q := range qs {
		it := Item{Question: q, Correct: Describe(q, q.CorrectAnswer), Yours: "No answer"}
		if a, ok := byID[q.ID]; ok {
			it.Answered = !a.UserAnswer.IsZero()
			it.Yours = Describe(q, a.UserAnswer)
			it.OK = a.IsCorrect
		}
		r.Items = append(r.Items, it)
	}
	return r
}

// Latest picks the most recent result; the backend returns them oldest first.
func Latest(rs []backend.QuizResult) (backend.QuizResult, bool) {
	if len(rs) == 0 {
		return backend.QuizResult{}, false
	}
	return rs[len(rs)-1], true
}

// Score computes a local result, used when the backend did not return a
// summary.
func Score(qs []question.Question, answers map[string]question.Answer) backend.QuizResult {
	res := backend.QuizResult{TotalQuestions: len(qs)}
	for _, q := range qs {
		if Matches(q.CorrectAnswer, answers[q.ID]) {
			res.CorrectAnswers++
		}
	}
	if res.TotalQuestions > 0 {
		res.ScorePercentage = res.CorrectAnswers * 100 / res.TotalQuestions
	}
	return res
}

// Matches reports whether got selects exactly the options in key, or for
// text keys whether the text matches.
func Matches(key, got question.Answer) bool {
	if key.Kind == question.AnswerText {
		return got.Kind == question.AnswerText && TextMatches(key.Text, got.Text)
	}
	want := indexSet(key)
	if want == nil {
		return false
	}
	have := indexSet(got)
	if len(have) != len(want) {
		return false
	}
	for i := range want {
		if _, ok := have[i]; !ok {
			return false
		}
	}
	return true
}

func indexSet(a question.Answer) map[int]struct{} {
	switch a.Kind {
	case question.AnswerSingle:
		return map[int]struct{}{a.Index: {}}
	case question.AnswerMulti:
		m := make(map[int]struct{}, len(a.Indices))
		for _, i := range a.Indices {
			m[i] = struct{}{}
		}
		return m
	}
	return nil
}
