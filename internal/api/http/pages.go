package http

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/auth"
	"github.com/mind-engage/mindengage-worksheets/internal/backend"
	"github.com/mind-engage/mindengage-worksheets/internal/cascade"
	"github.com/mind-engage/mindengage-worksheets/internal/export"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
	"github.com/mind-engage/mindengage-worksheets/internal/workspace"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"letter": question.Letter,
	"inc":    func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.html.tmpl"))

const flashCookie = "ws_flash"

type flash struct {
	Error bool
	Text  string
}

func setFlash(w http.ResponseWriter, isErr bool, msg string) {
	kind := "i:"
	if isErr {
		kind = "e:"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// readFlash returns the pending notice and clears it.
func readFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	v, err := url.QueryUnescape(c.Value)
	if err != nil || len(v) < 2 {
		return nil
	}
	return &flash{Error: strings.HasPrefix(v, "e:"), Text: v[2:]}
}

func pagePath(m workspace.Mode) string {
	switch m {
	case workspace.ModeQuiz:
		return "/quiz"
	case workspace.ModeExam:
		return "/exam"
	}
	return "/"
}

// formMode reads the hidden mode field every form carries.
func formMode(r *http.Request) workspace.Mode {
	m := workspace.Mode(r.FormValue("mode"))
	if !m.Valid() {
		return workspace.ModeWorksheet
	}
	return m
}

func back(w http.ResponseWriter, r *http.Request, m workspace.Mode) {
	http.Redirect(w, r, pagePath(m), http.StatusSeeOther)
}

// fail shows err as a notice on the page for mode.
func (s *server) fail(w http.ResponseWriter, r *http.Request, m workspace.Mode, err error, fallback string) {
	s.Log.Info("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	setFlash(w, true, userMessage(err, fallback))
	back(w, r, m)
}

// userMessage prefers the server's message, then the text of errors raised
// by input checks, then fallback.
func userMessage(err error, fallback string) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return backend.Message(err, fallback)
	}
	for _, known := range []error{
		ErrTopicRequired, ErrNameRequired, ErrNoAnswers, ErrAlreadySubmitted, ErrFeedbackType,
		backend.ErrLevelConflict, backend.ErrBadLevel, backend.ErrNoTopic,
		export.ErrExportUnavailable, export.ErrUnsupportedFormat,
		question.ErrNotFound, workspace.ErrBusy,
	} {
		if errors.Is(err, known) {
			msg := known.Error()
			return strings.ToUpper(msg[:1]) + msg[1:]
		}
	}
	return fallback
}

func (s *server) load(ctx context.Context) (workspace.Workspace, error) {
	sid := auth.SessionFromContext(ctx)
	ws, err := s.Store.Get(ctx, sid)
	if errors.Is(err, workspace.ErrNotFound) {
		return workspace.Workspace{ID: sid, Theme: s.DefaultTheme}, nil
	}
	return ws, err
}

func (s *server) update(ctx context.Context, fn func(*workspace.Workspace) error) (workspace.Workspace, error) {
	return s.Store.Update(ctx, auth.SessionFromContext(ctx), fn)
}

type stageView struct {
	Name     string
	Label    string
	Options  []cascade.Option
	Selected string
	Enabled  bool
}

type optionView struct {
	Index int
	Text  template.HTML
	Raw   string
}

type questionView struct {
	Number         int
	ID             string
	Type           string
	Text           template.HTML
	RawText        string
	Options        []optionView
	Multi          bool
	Image          template.URL
	Marks          string
	Answer         template.HTML
	Explanation    template.HTML
	RawExplanation string
}

type pageData struct {
	Mode         workspace.Mode
	Theme        workspace.Theme
	Flash        *flash
	User         string
	Stages       []stageView
	Topic        string
	ExamTopics   []cascade.Option
	Questions    []questionView
	TotalMarks   int
	CanPDF       bool
	Difficulties []backend.Difficulty
	BloomsLevels []string
	WorksheetID  string
	Submitted    bool
}

var stageLabels = [...]string{"Grade", "Subject", "Chapter", "Topic"}

func (s *server) html(text string) template.HTML {
	return s.Policy.HTML(s.Renderer.Render(text))
}

func (s *server) view(ws workspace.Workspace, m workspace.Mode) pageData {
	d := pageData{
		Mode:         m,
		Theme:        ws.Theme,
		Topic:        ws.Topic,
		ExamTopics:   ws.ExamTopics,
		TotalMarks:   question.TotalMarks(ws.Questions),
		CanPDF:       s.Exporter.CanConvert(),
		Difficulties: []backend.Difficulty{backend.Easy, backend.Medium, backend.Hard},
		BloomsLevels: backend.BloomsLevels,
		WorksheetID:  ws.WorksheetID,
		Submitted:    ws.Submitted,
	}
	if !d.Theme.Valid() {
		d.Theme = s.DefaultTheme
	}
	for st := cascade.Grade; st <= cascade.Topic; st++ {
		d.Stages = append(d.Stages, stageView{
			Name:     st.String(),
			Label:    stageLabels[st],
			Options:  ws.Cascade.Options(st),
			Selected: ws.Cascade.Selected(st),
			Enabled:  len(ws.Cascade.Options(st)) > 0,
		})
	}
	for i, q := range ws.Questions {
		v := questionView{
			Number:         i + 1,
			ID:             q.ID,
			Type:           q.Type.Label(),
			Text:           s.html(q.Text),
			RawText:        q.Text,
			Multi:          q.CorrectAnswer.Kind == question.AnswerMulti,
			Marks:          q.MarksLabel(),
			Answer:         s.html(export.AnswerText(q)),
			Explanation:    s.html(q.Explanation),
			RawExplanation: q.Explanation,
		}
		for j, o := range q.Options {
			v.Options = append(v.Options, optionView{Index: j, Text: s.html(o), Raw: o})
		}
		if src, ok := q.Image(); ok {
			v.Image = safeImage(src)
		}
		d.Questions = append(d.Questions, v)
	}
	return d
}

func safeImage(src string) template.URL {
	if strings.HasPrefix(src, "data:image/") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") {
		return template.URL(src)
	}
	return ""
}

func (s *server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.Log.Error("render page", zap.String("template", name), zap.Error(err))
	}
}

// GET /, /quiz, /exam
func (s *server) PageHandler(m workspace.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		f := readFlash(w, r)
		ws, err := s.load(ctx)
		if err != nil {
			http.Error(w, "load workspace", http.StatusInternalServerError)
			return
		}
		if len(ws.Cascade.Options(cascade.Grade)) == 0 {
			if ws, err = s.loadGrades(ctx); err != nil && f == nil {
				f = &flash{Error: true, Text: userMessage(err, "Failed to fetch grades")}
			}
		}
		d := s.view(ws, m)
		d.Flash = f
		d.User = auth.UserFromContext(ctx)
		s.render(w, http.StatusOK, "page.html.tmpl", d)
	}
}
