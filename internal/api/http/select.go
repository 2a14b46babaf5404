package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/cascade"
	"github.com/mind-engage/mindengage-worksheets/internal/workspace"
)

var stageFallbacks = [...]string{
	"Failed to fetch grades",
	"Failed to fetch subjects",
	"Failed to fetch chapters",
	"Failed to fetch topics",
}

func (s *server) fetchOptions(ctx context.Context, t cascade.Ticket) ([]cascade.Option, error) {
	var out []cascade.Option
	switch t.Stage {
	case cascade.Grade:
		gs, err := s.Backend.Grades(ctx)
		if err != nil {
			return nil, err
		}
		for _, g := range gs {
			out = append(out, cascade.Option{ID: g.ID, Name: g.Name})
		}
	case cascade.Subject:
		ss, err := s.Backend.SubjectsByGrade(ctx, t.ParentID)
		if err != nil {
			return nil, err
		}
		for _, x := range ss {
			out = append(out, cascade.Option{ID: x.ID, Name: x.Name})
		}
	case cascade.Chapter:
		cs, err := s.Backend.Chapters(ctx, t.ParentID)
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			out = append(out, cascade.Option{ID: c.ID, Name: c.Name})
		}
	case cascade.Topic:
		ts, err := s.Backend.Topics(ctx, t.ParentID)
		if err != nil {
			return nil, err
		}
		for _, x := range ts {
			out = append(out, cascade.Option{ID: x.ID, Name: x.Name})
		}
	}
	return out, nil
}

// fill fetches the options for t outside any workspace lock and applies them
// if t is still current. A stale list is dropped and the current workspace
// returned.
func (s *server) fill(ctx context.Context, ws workspace.Workspace, t cascade.Ticket) (workspace.Workspace, error) {
	opts, err := s.fetchOptions(ctx, t)
	if err != nil {
		return ws, err
	}
	next, err := s.update(ctx, func(w *workspace.Workspace) error { return w.Cascade.Apply(t, opts) })
	if errors.Is(err, cascade.ErrStale) {
		s.Log.Debug("dropped stale options", zap.Stringer("stage", t.Stage), zap.String("parent", t.ParentID))
		return s.load(ctx)
	}
	if err != nil {
		return ws, err
	}
	return next, nil
}

func (s *server) loadGrades(ctx context.Context) (workspace.Workspace, error) {
	var t cascade.Ticket
	ws, err := s.update(ctx, func(w *workspace.Workspace) error {
		t = w.Cascade.Begin()
		if !w.Theme.Valid() {
			w.Theme = s.DefaultTheme
		}
		return nil
	})
	if err != nil {
		return ws, err
	}
	return s.fill(ctx, ws, t)
}

// POST /select  stage=grade|subject|chapter|topic id=...
func (s *server) SelectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := formMode(r)
		stage, err := cascade.ParseStage(r.FormValue("stage"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id := strings.TrimSpace(r.FormValue("id"))

		var (
			t    cascade.Ticket
			more bool
		)
		ws, err := s.update(r.Context(), func(w *workspace.Workspace) error {
			var err error
			t, more, err = w.Cascade.Select(stage, id)
			return err
		})
		if err != nil {
			s.fail(w, r, m, err, "Failed to update selection")
			return
		}
		if more {
			if _, err := s.fill(r.Context(), ws, t); err != nil {
				s.fail(w, r, m, err, stageFallbacks[t.Stage])
				return
			}
		}
		back(w, r, m)
	}
}

// POST /exam/topics  action=add|remove id=...
// add takes the topic currently selected in the cascade when id is empty.
func (s *server) ExamTopicsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.FormValue("id"))
		action := r.FormValue("action")
		_, err := s.update(r.Context(), func(w *workspace.Workspace) error {
			switch action {
			case "add":
				if id == "" {
					id = w.Cascade.Selected(cascade.Topic)
				}
				if id == "" {
					return ErrTopicRequired
				}
				name := ""
				for _, o := range w.Cascade.Options(cascade.Topic) {
					if o.ID == id {
						name = o.Name
					}
				}
				if name == "" {
					return ErrTopicRequired
				}
				w.AddExamTopic(cascade.Option{ID: id, Name: name})
			case "remove":
				w.RemoveExamTopic(id)
			default:
				return errors.New("unknown action")
			}
			return nil
		})
		if err != nil {
			s.fail(w, r, workspace.ModeExam, err, "Failed to update exam topics")
			return
		}
		back(w, r, workspace.ModeExam)
	}
}
