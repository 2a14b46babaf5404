package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

type recorded struct {
	method, path, query, auth string
	body                      map[string]any
}

func newServer(t *testing.T, status int, reply string, rec *recorded) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec != nil {
			rec.method, rec.path, rec.query = r.Method, r.URL.Path, r.URL.RawQuery
			rec.auth = r.Header.Get("Authorization")
			if r.Body != nil {
				_ = json.NewDecoder(r.Body).Decode(&rec.body)
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Timeout: time.Second})
}

func TestReferenceDataPaths(t *testing.T) {
	var rec recorded
	c := newServer(t, 200, `[{"id":"s1","name":"Math","grade_id":"g1"}]`, &rec)
	ctx := context.Background()

	subs, err := c.SubjectsByGrade(ctx, "g 1")
	require.NoError(t, err)
	assert.Equal(t, "/api/grades/g 1/subjects", rec.path)
	require.Len(t, subs, 1)
	assert.Equal(t, "Math", subs[0].Name)

	_, err = c.Chapters(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "/api/subjects/s1/chapters", rec.path)

	_, err = c.Topics(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "/api/chapters/c1/topics", rec.path)

	_, err = c.Grades(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/api/grades", rec.path)
	assert.Equal(t, "", rec.auth)
}

func TestBearerTokenFromContext(t *testing.T) {
	var rec recorded
	c := newServer(t, 200, `[]`, &rec)
	_, err := c.Subjects(WithToken(context.Background(), "tok"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", rec.auth)
}

func TestGenerateWorksheetBody(t *testing.T) {
	var rec recorded
	c := newServer(t, 200, `[{"id":"q1","type":"mcq","text":"x","options":["a","b"],"correct_answer":1,"explanation":"","marks":1}]`, &rec)
	qs, err := c.GenerateWorksheet(context.Background(), GenerateParams{
		TopicID: "t1", MCQCount: 2, ShortAnswerCount: 1, Difficulty: Medium, SubjectName: "Math", IncludeImages: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/generate-worksheet", rec.path)
	assert.Equal(t, "t1", rec.body["topic_id"])
	assert.Equal(t, "medium", rec.body["difficulty"])
	assert.Equal(t, float64(2), rec.body["mcq_count"])
	assert.Equal(t, true, rec.body["include_images"])
	assert.NotContains(t, rec.body, "blooms_taxonomy_level")
	require.Len(t, qs, 1)
	assert.Equal(t, question.SingleIndex(1), qs[0].CorrectAnswer)
}

func TestGenerateExamUsesBloom(t *testing.T) {
	var rec recorded
	c := newServer(t, 200, `[]`, &rec)
	_, err := c.GenerateExam(context.Background(), GenerateParams{TopicIDs: []string{"a", "b"}, Name: "Mid-term", BloomsLevel: "Apply"})
	require.NoError(t, err)
	assert.Equal(t, "/api/generate-exam", rec.path)
	assert.Equal(t, []any{"a", "b"}, rec.body["topic_ids"])
	assert.Equal(t, "Mid-term", rec.body["name"])
	assert.Equal(t, "apply", rec.body["blooms_taxonomy_level"])
	assert.Equal(t, true, rec.body["use_blooms_taxonomy"])
	assert.NotContains(t, rec.body, "difficulty")
}

func TestGenerateRejectsBeforeNetwork(t *testing.T) {
	var rec recorded
	c := newServer(t, 200, `[]`, &rec)
	ctx := context.Background()

	_, err := c.GenerateQuiz(ctx, GenerateParams{TopicID: "t", Difficulty: Easy, BloomsLevel: "create"})
	assert.True(t, errors.Is(err, ErrLevelConflict))

	_, err = c.GenerateQuiz(ctx, GenerateParams{TopicID: "t", BloomsLevel: "memorise"})
	assert.True(t, errors.Is(err, ErrBadLevel))

	_, err = c.GenerateWorksheet(ctx, GenerateParams{})
	assert.True(t, errors.Is(err, ErrNoTopic))

	_, err = c.GenerateExam(ctx, GenerateParams{})
	assert.True(t, errors.Is(err, ErrNoTopic))

	assert.Equal(t, "", rec.path, "no request may reach the backend")
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail", 400, `{"detail":"Topic not found"}`, "Topic not found"},
		{"message", 500, `{"message":"boom"}`, "boom"},
		{"error", 502, `{"error":"upstream down"}`, "upstream down"},
		{"validation list", 422, `{"detail":[{"msg":"field required"},{"msg":"bad count"}]}`, "field required; bad count"},
		{"json without message", 500, `{"x":1}`, "Failed to fetch grades"},
		{"text body", 503, "service unavailable\n", "service unavailable"},
		{"empty body", 500, "", "Failed to fetch grades"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, tt.status, tt.body, nil)
			_, err := c.Grades(context.Background())
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.Equal(t, tt.want, Message(err, "generic"))
		})
	}
}

func TestMessageFallbackForTransportErrors(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	_, err := c.Grades(context.Background())
	require.Error(t, err)
	assert.Equal(t, "generic", Message(err, "generic"))
}

func TestSaveWorksheet(t *testing.T) {
	var rec recorded
	c := newServer(t, 200, `{"id":"ws-1","name":"Week 1","topic_id":"t","question_ids":["b","a"]}`, &rec)
	ws, err := c.SaveWorksheet(context.Background(), "Week 1", "t", []string{"b", "a"})
	require.NoError(t, err)
	assert.Regexp(t, `^ws-\d+$`, rec.body["id"])
	assert.Equal(t, []any{"b", "a"}, rec.body["question_ids"])
	assert.Equal(t, "ws-1", ws.ID)
}

func TestQuizCalls(t *testing.T) {
	var rec recorded
	c := newServer(t, 200, `[]`, &rec)
	ctx := context.Background()

	_, err := c.SubmitQuizAnswers(ctx, QuizSubmission{WorksheetID: "ws-1", Answers: []AnswerSubmission{
		{QuestionID: "q1", UserAnswer: question.SingleIndex(2)},
		{QuestionID: "q2", UserAnswer: question.FreeText("four")},
	}})
	require.NoError(t, err)
	assert.Equal(t, "/api/quiz-answers", rec.path)
	answers := rec.body["answers"].([]any)
	assert.Equal(t, float64(2), answers[0].(map[string]any)["user_answer"])
	assert.Equal(t, "four", answers[1].(map[string]any)["user_answer"])

	_, err = c.QuizResults(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "/api/quiz-results", rec.path)
	assert.Equal(t, "worksheet_id=ws-1", rec.query)

	_, err = c.SubmitQuizFeedback(ctx, QuizFeedback{WorksheetID: "ws-1", FeedbackType: "meh"})
	require.Error(t, err)
}

func TestObserverSeesStatus(t *testing.T) {
	var gotOp string
	var gotStatus int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL}, WithObserver(func(op string, status int, _ time.Duration) {
		gotOp, gotStatus = op, status
	}))
	_, _ = c.Topics(context.Background(), "c")
	assert.Equal(t, "topics", gotOp)
	assert.Equal(t, http.StatusTeapot, gotStatus)
}
