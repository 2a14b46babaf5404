package http

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/activity"
	"github.com/mind-engage/mindengage-worksheets/internal/auth"
	"github.com/mind-engage/mindengage-worksheets/internal/backend"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
	"github.com/mind-engage/mindengage-worksheets/internal/quiz"
	"github.com/mind-engage/mindengage-worksheets/internal/workspace"
)

var (
	ErrNoAnswers        = errors.New("please answer at least one question")
	ErrAlreadySubmitted = errors.New("this quiz has already been submitted")
	ErrFeedbackType     = errors.New("please choose thumbs up or thumbs down")
)

// POST /save  name=...
func (s *server) SaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		m := formMode(r)
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			s.fail(w, r, m, ErrNameRequired, "")
			return
		}
		ws, err := s.load(ctx)
		if err != nil {
			http.Error(w, "load workspace", http.StatusInternalServerError)
			return
		}
		if len(ws.Questions) == 0 {
			s.fail(w, r, m, errors.New("empty workspace"), "Nothing to save yet, generate some questions first")
			return
		}

		release, err := s.Guard.Acquire(auth.SessionFromContext(ctx), "save")
		if err != nil {
			http.Error(w, "Save already in progress", http.StatusConflict)
			return
		}
		defer release()

		saved, err := s.Backend.SaveWorksheet(ctx, name, ws.TopicID, question.IDs(ws.Questions))
		if err != nil {
			s.fail(w, r, m, err, "Failed to save worksheet")
			return
		}
		if _, err := s.update(ctx, func(w *workspace.Workspace) error {
			w.WorksheetID = saved.ID
			return nil
		}); err != nil {
			s.fail(w, r, m, err, "Failed to save worksheet")
			return
		}
		s.record(ctx, activity.TypeSave, saved.ID, map[string]any{"name": name, "questions": len(ws.Questions)})
		setFlash(w, false, "Worksheet saved")
		back(w, r, m)
	}
}

// collectAnswers reads answer-<question id> fields. Option questions send
// indices, the rest free text; unanswered questions are skipped.
func collectAnswers(form url.Values, qs []question.Question) []backend.AnswerSubmission {
	var out []backend.AnswerSubmission
	for _, q := range qs {
		vals := form["answer-"+q.ID]
		if len(vals) == 0 {
			continue
		}
		var a question.Answer
		if q.HasOptions() {
			var ix []int
			for _, v := range vals {
				if i, err := strconv.Atoi(v); err == nil && i >= 0 && i < len(q.Options) {
					ix = append(ix, i)
				}
			}
			switch {
			case len(ix) == 0:
				continue
			case q.CorrectAnswer.Kind == question.AnswerMulti || len(ix) > 1:
				a = question.MultiIndex(ix...)
			default:
				a = question.SingleIndex(ix[0])
			}
		} else {
			t := strings.TrimSpace(vals[0])
			if t == "" {
				continue
			}
			a = question.FreeText(t)
		}
		out = append(out, backend.AnswerSubmission{QuestionID: q.ID, UserAnswer: a})
	}
	return out
}

// POST /quiz/submit  answer-<id>=...
// The worksheet is saved first when the quiz has not been saved yet.
func (s *server) SubmitQuizHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		const m = workspace.ModeQuiz
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		ws, err := s.load(ctx)
		if err != nil {
			http.Error(w, "load workspace", http.StatusInternalServerError)
			return
		}
		if ws.Submitted {
			s.fail(w, r, m, ErrAlreadySubmitted, "")
			return
		}
		answers := collectAnswers(r.PostForm, ws.Questions)
		if len(answers) == 0 {
			s.fail(w, r, m, ErrNoAnswers, "")
			return
		}

		release, err := s.Guard.Acquire(auth.SessionFromContext(ctx), "submit")
		if err != nil {
			http.Error(w, "Submission already in progress", http.StatusConflict)
			return
		}
		defer release()

		wsID := ws.WorksheetID
		if wsID == "" {
			name := ws.Topic + " Quiz"
			saved, err := s.Backend.SaveWorksheet(ctx, strings.TrimSpace(name), ws.TopicID, question.IDs(ws.Questions))
			if err != nil {
				s.fail(w, r, m, err, "Failed to save quiz")
				return
			}
			wsID = saved.ID
		}
		if _, err := s.Backend.SubmitQuizAnswers(ctx, backend.QuizSubmission{WorksheetID: wsID, Answers: answers}); err != nil {
			// keep the saved id so a retry does not save a second copy
			_, _ = s.update(ctx, func(w *workspace.Workspace) error { w.WorksheetID = wsID; return nil })
			s.fail(w, r, m, err, "Failed to submit quiz answers")
			return
		}
		if _, err := s.update(ctx, func(w *workspace.Workspace) error {
			w.WorksheetID = wsID
			w.Submitted = true
			return nil
		}); err != nil {
			s.fail(w, r, m, err, "Failed to record submission")
			return
		}
		s.record(ctx, activity.TypeSubmit, wsID, map[string]any{"answered": len(answers), "questions": len(ws.Questions)})
		http.Redirect(w, r, "/quiz/results/"+url.PathEscape(wsID), http.StatusSeeOther)
	}
}

type resultItem struct {
	Number      int
	Text        template.HTML
	Yours       template.HTML
	Correct     template.HTML
	Explanation template.HTML
	OK          bool
	Answered    bool
}

type resultsData struct {
	Theme       workspace.Theme
	Flash       *flash
	User        string
	WorksheetID string
	Topic       string
	Review      quiz.Review
	Items       []resultItem
	Feedback    []backend.QuizFeedback
}

// GET /quiz/results/{worksheetID}
func (s *server) ResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "worksheetID")
		f := readFlash(w, r)
		ws, err := s.load(ctx)
		if err != nil {
			http.Error(w, "load workspace", http.StatusInternalServerError)
			return
		}
		results, err := s.Backend.QuizResults(ctx, id)
		if err != nil {
			s.fail(w, r, workspace.ModeQuiz, err, "Failed to fetch quiz results")
			return
		}
		answers, err := s.Backend.QuizAnswers(ctx, id)
		if err != nil {
			s.fail(w, r, workspace.ModeQuiz, err, "Failed to fetch quiz answers")
			return
		}
		feedback, err := s.Backend.QuizFeedback(ctx, id)
		if err != nil {
			s.Log.Info("quiz feedback unavailable", zap.String("worksheet", id), zap.Error(err))
		}

		qs := ws.Questions
		if ws.WorksheetID != id {
			qs = answeredOnly(ws.Questions, answers)
		}
		res, ok := quiz.Latest(results)
		if !ok {
			given := make(map[string]question.Answer, len(answers))
			for _, a := range answers {
				given[a.QuestionID] = a.UserAnswer
			}
			res = quiz.Score(qs, given)
			res.WorksheetID = id
		}
		review := quiz.Build(qs, res, answers)

		d := resultsData{
			Theme:       ws.Theme,
			Flash:       f,
			User:        auth.UserFromContext(ctx),
			WorksheetID: id,
			Topic:       ws.Topic,
			Review:      review,
			Feedback:    feedback,
		}
		if !d.Theme.Valid() {
			d.Theme = s.DefaultTheme
		}
		for i, it := range review.Items {
			d.Items = append(d.Items, resultItem{
				Number:      i + 1,
				Text:        s.html(it.Question.Text),
				Yours:       s.html(it.Yours),
				Correct:     s.html(it.Correct),
				Explanation: s.html(it.Question.Explanation),
				OK:          it.OK,
				Answered:    it.Answered,
			})
		}
		s.render(w, http.StatusOK, "results.html.tmpl", d)
	}
}

func answeredOnly(qs []question.Question, answers []backend.QuizAnswer) []question.Question {
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		seen[a.QuestionID] = true
	}
	var out []question.Question
	for _, q := range qs {
		if seen[q.ID] {
			out = append(out, q)
		}
	}
	return out
}

// POST /quiz/feedback  worksheet_id, feedback_type=thumbs_up|thumbs_down, comment
func (s *server) FeedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.FormValue("worksheet_id"))
		dest := "/quiz/results/" + url.PathEscape(id)
		fb := backend.QuizFeedback{
			WorksheetID:  id,
			FeedbackType: backend.FeedbackType(r.FormValue("feedback_type")),
			Comment:      strings.TrimSpace(r.FormValue("comment")),
		}
		if id == "" {
			http.Error(w, "worksheet_id required", http.StatusBadRequest)
			return
		}
		if fb.FeedbackType != backend.ThumbsUp && fb.FeedbackType != backend.ThumbsDown {
			setFlash(w, true, userMessage(ErrFeedbackType, ""))
			http.Redirect(w, r, dest, http.StatusSeeOther)
			return
		}
		if _, err := s.Backend.SubmitQuizFeedback(r.Context(), fb); err != nil {
			setFlash(w, true, userMessage(err, "Failed to submit feedback"))
			http.Redirect(w, r, dest, http.StatusSeeOther)
			return
		}
		setFlash(w, false, "Thanks for your feedback!")
		http.Redirect(w, r, dest, http.StatusSeeOther)
	}
}
