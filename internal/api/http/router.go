// Package http serves the worksheet pages, the form handlers behind them and
// a small JSON API over the session workspace.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/activity"
	"github.com/mind-engage/mindengage-worksheets/internal/auth"
	"github.com/mind-engage/mindengage-worksheets/internal/backend"
	"github.com/mind-engage/mindengage-worksheets/internal/equation"
	"github.com/mind-engage/mindengage-worksheets/internal/export"
	"github.com/mind-engage/mindengage-worksheets/internal/metrics"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
	"github.com/mind-engage/mindengage-worksheets/internal/sanitize"
	"github.com/mind-engage/mindengage-worksheets/internal/storage"
	"github.com/mind-engage/mindengage-worksheets/internal/workspace"
)

var (
	ErrTopicRequired = errors.New("please select a topic first")
	ErrNameRequired  = errors.New("please enter a name")
)

// Backend is the part of the generation API the handlers call.
// *backend.Client satisfies it.
type Backend interface {
	Grades(ctx context.Context) ([]backend.Grade, error)
	SubjectsByGrade(ctx context.Context, gradeID string) ([]backend.Subject, error)
	Chapters(ctx context.Context, subjectID string) ([]backend.Chapter, error)
	Topics(ctx context.Context, chapterID string) ([]backend.Topic, error)
	GenerateWorksheet(ctx context.Context, p backend.GenerateParams) ([]question.Question, error)
	GenerateQuiz(ctx context.Context, p backend.GenerateParams) ([]question.Question, error)
	GenerateExam(ctx context.Context, p backend.GenerateParams) ([]question.Question, error)
	SaveWorksheet(ctx context.Context, name, topicID string, questionIDs []string) (backend.Worksheet, error)
	SubmitQuizAnswers(ctx context.Context, sub backend.QuizSubmission) ([]backend.QuizAnswer, error)
	QuizResults(ctx context.Context, worksheetID string) ([]backend.QuizResult, error)
	QuizAnswers(ctx context.Context, worksheetID string) ([]backend.QuizAnswer, error)
	QuizFeedback(ctx context.Context, worksheetID string) ([]backend.QuizFeedback, error)
	SubmitQuizFeedback(ctx context.Context, fb backend.QuizFeedback) (backend.QuizFeedback, error)
	Login(ctx context.Context, username, password string) (backend.Token, error)
	Register(ctx context.Context, username, email, password string) (backend.Token, error)
	Me(ctx context.Context) (backend.User, error)
}

type Deps struct {
	Backend  Backend
	Store    workspace.Store
	Guard    *workspace.Guard
	Exporter *export.Exporter
	Renderer *equation.Renderer
	Policy   *sanitize.Policy
	Sessions *auth.SessionService
	Log      *zap.Logger

	Metrics  *metrics.Metrics  // optional
	Blobs    storage.BlobStore // optional, serves /assets/*
	Activity activity.Log      // defaults to an in-memory log
	Ready    func(context.Context) error

	DefaultTheme  workspace.Theme
	CORSOrigins   []string
	GenerateRate  float64 // per minute; 0 disables the limit
	GenerateBurst int
}

type server struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Guard == nil {
		d.Guard = workspace.NewGuard()
	}
	if d.Activity == nil {
		d.Activity = activity.NewMemoryLog(100)
	}
	if !d.DefaultTheme.Valid() {
		d.DefaultTheme = workspace.ThemeLight
	}
	s := &server{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(d.Log), middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})
	if d.Blobs != nil {
		r.Route("/assets", func(ar chi.Router) { MountAssets(ar, d.Blobs) })
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(d.Sessions, d.Log))
		pr.Use(middleware.Timeout(5 * time.Minute))

		// Pages
		pr.Get("/", s.PageHandler(workspace.ModeWorksheet))
		pr.Get("/quiz", s.PageHandler(workspace.ModeQuiz))
		pr.Get("/exam", s.PageHandler(workspace.ModeExam))

		// Forms
		pr.Post("/select", s.SelectHandler())
		pr.Post("/exam/topics", s.ExamTopicsHandler())
		gen := s.GenerateHandler()
		if d.GenerateRate > 0 {
			pr.With(rateLimiter(d.GenerateRate, d.GenerateBurst)).Post("/generate", gen)
		} else {
			pr.Post("/generate", gen)
		}
		pr.Post("/questions/move", s.MoveHandler())
		pr.Post("/questions/{id}", s.EditHandler())
		pr.Post("/export", s.ExportHandler())
		pr.Get("/transcript", s.TranscriptHandler())
		pr.Post("/save", s.SaveHandler())
		pr.Post("/quiz/submit", s.SubmitQuizHandler())
		pr.Get("/quiz/results/{worksheetID}", s.ResultsHandler())
		pr.Post("/quiz/feedback", s.FeedbackHandler())
		pr.Post("/login", s.LoginHandler())
		pr.Post("/register", s.RegisterHandler())
		pr.Post("/logout", s.LogoutHandler())
		pr.Post("/theme", s.ThemeHandler())

		// JSON
		pr.Route("/api", func(ar chi.Router) {
			ar.Use(cors.Handler(cors.Options{
				AllowedOrigins:   d.CORSOrigins,
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type"},
				ExposedHeaders:   []string{"Content-Length"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			ar.Get("/workspace", s.WorkspaceHandler())
			ar.Post("/workspace/reorder", s.ReorderHandler())
			ar.Post("/render", s.RenderHandler())
			ar.Get("/activity", s.ActivityHandler())
		})
	})
	return r
}
