// Package backend is the HTTP/JSON client for the question-generation API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

type ctxKey string

const ctxKeyToken ctxKey = "backend-token"

// WithToken attaches the bearer token sent with every call made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

func TokenFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyToken); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Message returns the user-facing text for err: the server's message for an
// APIError, fallback for everything else.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	base    string
	http    *http.Client
	log     *zap.Logger
	observe func(op string, status int, took time.Duration)
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithObserver is called after every request with the operation name and the
// HTTP status (0 on transport failure).
func WithObserver(fn func(op string, status int, took time.Duration)) Option {
	return func(c *Client) { c.observe = fn }
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	c := &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: timeout},
		log:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GET /api/grades
func (c *Client) Grades(ctx context.Context) ([]Grade, error) {
	var out []Grade
	err := c.do(ctx, "grades", http.MethodGet, "/api/grades", nil, &out, "Failed to fetch grades")
	return out, err
}

// GET /api/grades/{id}/subjects
func (c *Client) SubjectsByGrade(ctx context.Context, gradeID string) ([]Subject, error) {
	var out []Subject
	err := c.do(ctx, "subjects_by_grade", http.MethodGet, "/api/grades/"+url.PathEscape(gradeID)+"/subjects", nil, &out, "Failed to fetch subjects for grade")
	return out, err
}

// GET /api/subjects
func (c *Client) Subjects(ctx context.Context) ([]Subject, error) {
	var out []Subject
	err := c.do(ctx, "subjects", http.MethodGet, "/api/subjects", nil, &out, "Failed to fetch subjects")
	return out, err
}

// GET /api/subjects/{id}/chapters
func (c *Client) Chapters(ctx context.Context, subjectID string) ([]Chapter, error) {
	var out []Chapter
	err := c.do(ctx, "chapters", http.MethodGet, "/api/subjects/"+url.PathEscape(subjectID)+"/chapters", nil, &out, "Failed to fetch chapters")
	return out, err
}

// GET /api/chapters/{id}/topics
func (c *Client) Topics(ctx context.Context, chapterID string) ([]Topic, error) {
	var out []Topic
	err := c.do(ctx, "topics", http.MethodGet, "/api/chapters/"+url.PathEscape(chapterID)+"/topics", nil, &out, "Failed to fetch topics")
	return out, err
}

// POST /api/generate-worksheet
func (c *Client) GenerateWorksheet(ctx context.Context, p GenerateParams) ([]question.Question, error) {
	if p.TopicID == "" {
		return nil, ErrNoTopic
	}
	return c.generate(ctx, "generate_worksheet", "/api/generate-worksheet", p, func(m map[string]any) {
		m["topic_id"] = p.TopicID
	}, "Failed to generate worksheet")
}

// POST /api/generate-quiz
func (c *Client) GenerateQuiz(ctx context.Context, p GenerateParams) ([]question.Question, error) {
	if p.TopicID == "" {
		return nil, ErrNoTopic
	}
	return c.generate(ctx, "generate_quiz", "/api/generate-quiz", p, func(m map[string]any) {
		m["topic_id"] = p.TopicID
	}, "Failed to generate quiz")
}

// POST /api/generate-exam
func (c *Client) GenerateExam(ctx context.Context, p GenerateParams) ([]question.Question, error) {
	if len(p.TopicIDs) == 0 {
		return nil, ErrNoTopic
	}
	return c.generate(ctx, "generate_exam", "/api/generate-exam", p, func(m map[string]any) {
		m["topic_ids"] = p.TopicIDs
		if p.Name != "" {
			m["name"] = p.Name
		}
	}, "Failed to generate exam")
}

func (c *Client) generate(ctx context.Context, op, path string, p GenerateParams, scope func(map[string]any), fallback string) ([]question.Question, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	body := p.body()
	scope(body)
	var out []question.Question
	if err := c.do(ctx, op, http.MethodPost, path, body, &out, fallback); err != nil {
		return nil, err
	}
	return out, nil
}

// GET /api/questions?topic_id=
func (c *Client) Questions(ctx context.Context, topicID string) ([]question.Question, error) {
	path := "/api/questions"
	if topicID != "" {
		path += "?" + url.Values{"topic_id": {topicID}}.Encode()
	}
	var out []question.Question
	err := c.do(ctx, "questions", http.MethodGet, path, nil, &out, "Failed to fetch questions")
	return out, err
}

// POST /api/worksheets. The id is generated here as ws-<unix millis>.
func (c *Client) SaveWorksheet(ctx context.Context, name, topicID string, questionIDs []string) (Worksheet, error) {
	body := Worksheet{
		ID:          fmt.Sprintf("ws-%d", time.Now().UnixMilli()),
		Name:        name,
		TopicID:     topicID,
		QuestionIDs: questionIDs,
	}
	var out Worksheet
	err := c.do(ctx, "save_worksheet", http.MethodPost, "/api/worksheets", body, &out, "Failed to save worksheet")
	return out, err
}

// GET /api/worksheets
func (c *Client) Worksheets(ctx context.Context) ([]Worksheet, error) {
	var out []Worksheet
	err := c.do(ctx, "worksheets", http.MethodGet, "/api/worksheets", nil, &out, "Failed to fetch worksheets")
	return out, err
}

// GET /api/worksheets/{id}
func (c *Client) Worksheet(ctx context.Context, id string) (Worksheet, error) {
	var out Worksheet
	err := c.do(ctx, "worksheet", http.MethodGet, "/api/worksheets/"+url.PathEscape(id), nil, &out, "Failed to fetch worksheet")
	return out, err
}

// DELETE /api/worksheets/{id}
func (c *Client) DeleteWorksheet(ctx context.Context, id string) error {
	return c.do(ctx, "delete_worksheet", http.MethodDelete, "/api/worksheets/"+url.PathEscape(id), nil, nil, "Failed to delete worksheet")
}

// POST /api/quiz-answers
func (c *Client) SubmitQuizAnswers(ctx context.Context, sub QuizSubmission) ([]QuizAnswer, error) {
	var out []QuizAnswer
	err := c.do(ctx, "submit_quiz_answers", http.MethodPost, "/api/quiz-answers", sub, &out, "Failed to submit quiz answers")
	return out, err
}

// GET /api/quiz-results?worksheet_id=
func (c *Client) QuizResults(ctx context.Context, worksheetID string) ([]QuizResult, error) {
	var out []QuizResult
	err := c.do(ctx, "quiz_results", http.MethodGet, byWorksheet("/api/quiz-results", worksheetID), nil, &out, "Failed to fetch quiz results")
	return out, err
}

// GET /api/quiz-answers?worksheet_id=
func (c *Client) QuizAnswers(ctx context.Context, worksheetID string) ([]QuizAnswer, error) {
	var out []QuizAnswer
	err := c.do(ctx, "quiz_answers", http.MethodGet, byWorksheet("/api/quiz-answers", worksheetID), nil, &out, "Failed to fetch quiz answers")
	return out, err
}

// GET /api/quiz-feedback?worksheet_id=
func (c *Client) QuizFeedback(ctx context.Context, worksheetID string) ([]QuizFeedback, error) {
	var out []QuizFeedback
	err := c.do(ctx, "quiz_feedback", http.MethodGet, byWorksheet("/api/quiz-feedback", worksheetID), nil, &out, "Failed to fetch quiz feedback")
	return out, err
}

// POST /api/quiz-feedback
func (c *Client) SubmitQuizFeedback(ctx context.Context, fb QuizFeedback) (QuizFeedback, error) {
	if fb.FeedbackType != ThumbsUp && fb.FeedbackType != ThumbsDown {
		return QuizFeedback{}, fmt.Errorf("feedback type must be %s or %s", ThumbsUp, ThumbsDown)
	}
	var out QuizFeedback
	err := c.do(ctx, "submit_quiz_feedback", http.MethodPost, "/api/quiz-feedback", fb, &out, "Failed to submit feedback")
	return out, err
}

// POST /api/auth/login
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	var out Token
	body := map[string]string{"username": username, "password": password}
	err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", body, &out, "Login failed")
	return out, err
}

// POST /api/auth/register
func (c *Client) Register(ctx context.Context, username, email, password string) (Token, error) {
	var out Token
	body := map[string]string{"username": username, "email": email, "password": password}
	err := c.do(ctx, "register", http.MethodPost, "/api/auth/register", body, &out, "Registration failed")
	return out, err
}

// GET /api/auth/me
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.do(ctx, "me", http.MethodGet, "/api/auth/me", nil, &out, "Failed to get current user")
	return out, err
}

func byWorksheet(path, worksheetID string) string {
	if worksheetID == "" {
		return path
	}
	return path + "?" + url.Values{"worksheet_id": {worksheetID}}.Encode()
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any, fallback string) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		if c.observe != nil {
			c.observe(op, status, time.Since(start))
		}
		if err != nil {
			c.log.Warn("backend call failed", zap.String("op", op), zap.Int("status", status), zap.Error(err))
		}
	}()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := TokenFromContext(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	status = res.StatusCode

	if res.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		return &APIError{Status: res.StatusCode, Message: errorMessage(raw, fallback)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage pulls detail, message or error out of a JSON body, then falls
// back to the trimmed text body, then to fallback.
func errorMessage(raw []byte, fallback string) string {
	var body map[string]any
	if json.Unmarshal(raw, &body) == nil {
		for _, k := range []string{"detail", "message", "error"} {
			switch v := body[k].(type) {
			case string:
				if v != "" {
					return v
				}
			case []any:
				// validation errors: [{"msg": "..."}]
				var msgs []string
				for _, it := range v {
					if m, ok := it.(map[string]any); ok {
						if s, ok := m["msg"].(string); ok {
							msgs = append(msgs, s)
						}
					}
				}
				if len(msgs) > 0 {
					return strings.Join(msgs, "; ")
				}
			}
		}
		return fallback
	}
	if s := strings.TrimSpace(string(raw)); s != "" && len(s) <= 500 {
		return s
	}
	return fallback
}
