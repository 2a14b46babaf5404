package http

import (
	"context"
	"sync"

	"github.com/mind-engage/mindengage-worksheets/internal/backend"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

// fakeBackend answers from fixed reference data and records what it was
// asked. Hooks run before the reply is returned.
type fakeBackend struct {
	mu sync.Mutex

	tokens      []string
	generated   []backend.GenerateParams
	saved       []string
	submissions []backend.QuizSubmission
	feedback    []backend.QuizFeedback

	questions []question.Question
	genErr    error
	onTopics  func(chapterID string)
	genGate   chan struct{} // when set, generation waits for it
	genStart  chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{questions: []question.Question{
		{ID: "q1", Type: question.TypeMCQ, Text: "What is $\\frac{1}{2} + \\frac{1}{4}$?", Options: []string{"1/4", "3/4", "1"},
			CorrectAnswer: question.SingleIndex(1), Explanation: "Use a common denominator.", Marks: 1},
		{ID: "q2", Type: question.TypeShort, Text: "Define a fraction.", CorrectAnswer: question.FreeText("A part of a whole."), Marks: 2},
	}}
}

func (f *fakeBackend) seen(ctx context.Context) {
	f.mu.Lock()
	f.tokens = append(f.tokens, backend.TokenFromContext(ctx))
	f.mu.Unlock()
}

func (f *fakeBackend) lastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokens) == 0 {
		return ""
	}
	return f.tokens[len(f.tokens)-1]
}

func (f *fakeBackend) Grades(ctx context.Context) ([]backend.Grade, error) {
	f.seen(ctx)
	return []backend.Grade{{ID: "g6", Name: "Grade 6"}, {ID: "g7", Name: "Grade 7"}}, nil
}

func (f *fakeBackend) SubjectsByGrade(ctx context.Context, gradeID string) ([]backend.Subject, error) {
	f.seen(ctx)
	return []backend.Subject{{ID: "maths-" + gradeID, Name: "Mathematics", GradeID: gradeID}}, nil
}

func (f *fakeBackend) Chapters(ctx context.Context, subjectID string) ([]backend.Chapter, error) {
	f.seen(ctx)
	return []backend.Chapter{{ID: "c1", Name: "Numbers"}, {ID: "c2", Name: "Geometry"}}, nil
}

func (f *fakeBackend) Topics(ctx context.Context, chapterID string) ([]backend.Topic, error) {
	f.seen(ctx)
	f.mu.Lock()
	hook := f.onTopics
	f.onTopics = nil
	f.mu.Unlock()
	if hook != nil {
		hook(chapterID)
	}
	if chapterID == "c2" {
		return []backend.Topic{{ID: "t-angles", Name: "Angles"}}, nil
	}
	return []backend.Topic{{ID: "t-frac", Name: "Fractions"}, {ID: "t-dec", Name: "Decimals"}}, nil
}

func (f *fakeBackend) generate(ctx context.Context, p backend.GenerateParams) ([]question.Question, error) {
	f.seen(ctx)
	f.mu.Lock()
	f.generated = append(f.generated, p)
	gate, start := f.genGate, f.genStart
	f.mu.Unlock()
	if start != nil {
		start <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if f.genErr != nil {
		return nil, f.genErr
	}
	return append([]question.Question(nil), f.questions...), nil
}

func (f *fakeBackend) GenerateWorksheet(ctx context.Context, p backend.GenerateParams) ([]question.Question, error) {
	return f.generate(ctx, p)
}

func (f *fakeBackend) GenerateQuiz(ctx context.Context, p backend.GenerateParams) ([]question.Question, error) {
	return f.generate(ctx, p)
}

func (f *fakeBackend) GenerateExam(ctx context.Context, p backend.GenerateParams) ([]question.Question, error) {
	return f.generate(ctx, p)
}

func (f *fakeBackend) SaveWorksheet(ctx context.Context, name, topicID string, ids []string) (backend.Worksheet, error) {
	f.seen(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, name)
	return backend.Worksheet{ID: "ws-1", Name: name, TopicID: topicID, QuestionIDs: ids}, nil
}

func (f *fakeBackend) SubmitQuizAnswers(ctx context.Context, sub backend.QuizSubmission) ([]backend.QuizAnswer, error) {
	f.seen(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, sub)
	return nil, nil
}

func (f *fakeBackend) QuizResults(ctx context.Context, worksheetID string) ([]backend.QuizResult, error) {
	f.seen(ctx)
	return []backend.QuizResult{{WorksheetID: worksheetID, TotalQuestions: 2, CorrectAnswers: 1, ScorePercentage: 50}}, nil
}

func (f *fakeBackend) QuizAnswers(ctx context.Context, worksheetID string) ([]backend.QuizAnswer, error) {
	f.seen(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []backend.QuizAnswer
	for _, s := range f.submissions {
		for _, a := range s.Answers {
			out = append(out, backend.QuizAnswer{QuestionID: a.QuestionID, WorksheetID: worksheetID, UserAnswer: a.UserAnswer, IsCorrect: a.QuestionID == "q1"})
		}
	}
	return out, nil
}

func (f *fakeBackend) QuizFeedback(ctx context.Context, worksheetID string) ([]backend.QuizFeedback, error) {
	f.seen(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.QuizFeedback(nil), f.feedback...), nil
}

func (f *fakeBackend) SubmitQuizFeedback(ctx context.Context, fb backend.QuizFeedback) (backend.QuizFeedback, error) {
	f.seen(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback = append(f.feedback, fb)
	return fb, nil
}

func (f *fakeBackend) Login(ctx context.Context, username, password string) (backend.Token, error) {
	f.seen(ctx)
	if password != "secret" {
		return backend.Token{}, &backend.APIError{Status: 401, Message: "Incorrect username or password"}
	}
	return backend.Token{AccessToken: "tok-" + username, TokenType: "bearer"}, nil
}

func (f *fakeBackend) Register(ctx context.Context, username, email, password string) (backend.Token, error) {
	f.seen(ctx)
	return backend.Token{AccessToken: "tok-" + username, TokenType: "bearer"}, nil
}

func (f *fakeBackend) Me(ctx context.Context) (backend.User, error) {
	f.seen(ctx)
	return backend.User{ID: "u1", Username: "asha"}, nil
}
