package export

import (
	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

// AnswerText resolves the correct answer for display:
//
//	single index with that option present  "B. <option>"
//	single index without it                "B"
//	multiple indices                       "A, C" ("" when empty)
//	free text                              the text
//	none                                   "N/A"
func AnswerText(q question.Question) string {
	return resolveAnswer(q, func(s string) string { return s })
}

func resolveAnswer(q question.Question, option func(string) string) string {
	a := q.CorrectAnswer
	switch a.Kind {
	case question.AnswerSingle:
		if a.Index >= 0 && a.Index < len(q.Options) {
			return question.Letter(a.Index) + ". " + option(q.Options[a.Index])
		}
		return question.Letter(a.Index)
	case question.AnswerMulti:
		return question.Letters(a)
	case question.AnswerText:
		if a.Text != "" {
			return option(a.Text)
		}
	}
	return "N/A"
}
