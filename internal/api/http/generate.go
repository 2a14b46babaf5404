package http

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/activity"
	"github.com/mind-engage/mindengage-worksheets/internal/auth"
	"github.com/mind-engage/mindengage-worksheets/internal/backend"
	"github.com/mind-engage/mindengage-worksheets/internal/cascade"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
	"github.com/mind-engage/mindengage-worksheets/internal/workspace"
)

func formInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func formBool(r *http.Request, key string) bool {
	switch r.FormValue(key) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func generateParams(r *http.Request) backend.GenerateParams {
	p := backend.GenerateParams{
		MCQCount:           formInt(r, "mcq_count", 5),
		ShortAnswerCount:   formInt(r, "short_answer_count", 3),
		LongAnswerCount:    formInt(r, "long_answer_count", 2),
		IncludeImages:      formBool(r, "include_images"),
		GenerateRealImages: formBool(r, "generate_real_images"),
	}
	// The form offers a level kind switch; only the chosen one is sent.
	switch r.FormValue("level_kind") {
	case "blooms":
		p.BloomsLevel = r.FormValue("blooms_level")
	case "difficulty":
		p.Difficulty = backend.Difficulty(r.FormValue("difficulty"))
	default:
		p.Difficulty = backend.Difficulty(r.FormValue("difficulty"))
		p.BloomsLevel = r.FormValue("blooms_level")
	}
	return p
}

// POST /generate  mode=worksheet|quiz|exam
func (s *server) GenerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		m := formMode(r)
		ws, err := s.load(ctx)
		if err != nil {
			http.Error(w, "load workspace", http.StatusInternalServerError)
			return
		}

		p := generateParams(r)
		p.SubjectName = ws.Cascade.Name(cascade.Subject)
		topic := ws.Cascade.Name(cascade.Topic)
		switch m {
		case workspace.ModeExam:
			p.TopicIDs = ws.ExamTopicIDs()
			p.Name = strings.TrimSpace(r.FormValue("name"))
			if len(p.TopicIDs) == 0 {
				s.fail(w, r, m, ErrTopicRequired, "")
				return
			}
			topic = p.Name
			if topic == "" {
				topic = "Exam"
			}
		default:
			p.TopicID = ws.Cascade.Selected(cascade.Topic)
			if p.TopicID == "" {
				s.fail(w, r, m, ErrTopicRequired, "")
				return
			}
		}
		if err := p.Validate(); err != nil {
			s.fail(w, r, m, err, "Invalid generation options")
			return
		}

		release, err := s.Guard.Acquire(auth.SessionFromContext(ctx), "generate")
		if err != nil {
			http.Error(w, "Generation already in progress", http.StatusConflict)
			return
		}
		defer release()

		var qs []question.Question
		switch m {
		case workspace.ModeQuiz:
			qs, err = s.Backend.GenerateQuiz(ctx, p)
		case workspace.ModeExam:
			qs, err = s.Backend.GenerateExam(ctx, p)
		default:
			qs, err = s.Backend.GenerateWorksheet(ctx, p)
		}
		if err != nil {
			s.fail(w, r, m, err, "Failed to generate "+string(m))
			return
		}
		for _, q := range qs {
			if err := q.Validate(); err != nil {
				s.Log.Warn("backend returned an invalid question", zap.String("id", q.ID), zap.Error(err))
			}
		}

		_, err = s.update(ctx, func(w *workspace.Workspace) error {
			w.Mode = m
			w.Topic = topic
			w.TopicID = p.TopicID
			if m == workspace.ModeExam && len(p.TopicIDs) > 0 {
				w.TopicID = p.TopicIDs[0]
			}
			w.SubjectName = p.SubjectName
			w.SetQuestions(qs)
			return nil
		})
		if err != nil {
			s.fail(w, r, m, err, "Failed to store questions")
			return
		}
		s.record(ctx, activity.TypeGenerate, topic, map[string]any{
			"mode":      m,
			"questions": len(qs),
			"marks":     question.TotalMarks(qs),
		})
		back(w, r, m)
	}
}
