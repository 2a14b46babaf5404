package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-worksheets/internal/question"
	"github.com/mind-engage/mindengage-worksheets/internal/workspace"
)

// POST /questions/move  active=<id> over=<id>, or id=<id> dir=up|down
func (s *server) MoveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := formMode(r)
		active, over := r.FormValue("active"), r.FormValue("over")
		id, dir := r.FormValue("id"), r.FormValue("dir")
		_, err := s.update(r.Context(), func(w *workspace.Workspace) error {
			var (
				moved []question.Question
				err   error
			)
			if active != "" {
				moved, err = question.MoveByID(w.Questions, active, over)
			} else {
				from := question.IndexOf(w.Questions, id)
				if from < 0 {
					return fmt.Errorf("%w: %s", question.ErrNotFound, id)
				}
				to := from
				switch dir {
				case "up":
					to--
				case "down":
					to++
				}
				if to < 0 || to >= len(w.Questions) || to == from {
					return nil
				}
				moved, err = question.Move(w.Questions, from, to)
			}
			if err != nil {
				return err
			}
			w.Questions = moved
			return nil
		})
		if err != nil {
			s.fail(w, r, m, err, "Failed to move question")
			return
		}
		back(w, r, m)
	}
}

// POST /questions/{id}  text, option (repeated), explanation
// Fields missing from the form are left unchanged.
func (s *server) EditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := formMode(r)
		id := chi.URLParam(r, "id")
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		var e question.Edit
		if _, ok := r.PostForm["text"]; ok {
			t := r.PostForm.Get("text")
			e.Text = &t
		}
		if opts, ok := r.PostForm["option"]; ok {
			e.Options = opts
		}
		if _, ok := r.PostForm["explanation"]; ok {
			x := r.PostForm.Get("explanation")
			e.Explanation = &x
		}
		_, err := s.update(r.Context(), func(w *workspace.Workspace) error {
			qs, err := question.Apply(w.Questions, id, e)
			if err != nil {
				return err
			}
			w.Questions = qs
			return nil
		})
		if err != nil {
			s.fail(w, r, m, err, "Failed to update question")
			return
		}
		back(w, r, m)
	}
}
