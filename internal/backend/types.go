package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

type Grade struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	GradeID     string `json:"grade_id"`
	Description string `json:"description,omitempty"`
}

type Chapter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SubjectID   string `json:"subject_id"`
	Description string `json:"description,omitempty"`
}

type Topic struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ChapterID   string   `json:"chapter_id"`
	Subtopics   []string `json:"subtopics"`
	Description string   `json:"description,omitempty"`
}

type Worksheet struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TopicID     string   `json:"topic_id"`
	QuestionIDs []string `json:"question_ids"`
	UserID      string   `json:"user_id,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var BloomsLevels = []string{"remember", "understand", "apply", "analyze", "evaluate", "create"}

var (
	// ErrLevelConflict is returned when a request sets both a difficulty and a
	// Bloom's taxonomy level.
	ErrLevelConflict = errors.New("difficulty and bloom's taxonomy level are mutually exclusive")
	ErrBadLevel      = errors.New("unknown difficulty or bloom's taxonomy level")
	ErrNoTopic       = errors.New("at least one topic is required")
)

// GenerateParams is shared by worksheet, quiz and exam generation. Exams use
// TopicIDs and Name; the other two use TopicID.
type GenerateParams struct {
	TopicID            string
	TopicIDs           []string
	Name               string
	MCQCount           int
	ShortAnswerCount   int
	LongAnswerCount    int
	Difficulty         Difficulty
	BloomsLevel        string
	SubjectName        string
	IncludeImages      bool
	GenerateRealImages bool
}

func (p GenerateParams) Validate() error {
	if p.Difficulty != "" && p.BloomsLevel != "" {
		return ErrLevelConflict
	}
	switch p.Difficulty {
	case "", Easy, Medium, Hard:
	default:
		return fmt.Errorf("%w: difficulty %q", ErrBadLevel, p.Difficulty)
	}
	if p.BloomsLevel != "" && !validBloom(p.BloomsLevel) {
		return fmt.Errorf("%w: bloom's level %q", ErrBadLevel, p.BloomsLevel)
	}
	if p.MCQCount < 0 || p.ShortAnswerCount < 0 || p.LongAnswerCount < 0 {
		return errors.New("question counts must not be negative")
	}
	return nil
}

func validBloom(level string) bool {
	for _, l := range BloomsLevels {
		if strings.EqualFold(l, level) {
			return true
		}
	}
	return false
}

func (p GenerateParams) body() map[string]any {
	m := map[string]any{
		"mcq_count":            p.MCQCount,
		"short_answer_count":   p.ShortAnswerCount,
		"long_answer_count":    p.LongAnswerCount,
		"subject_name":         p.SubjectName,
		"include_images":       p.IncludeImages,
		"generate_real_images": p.GenerateRealImages,
	}
	if p.Difficulty != "" {
		m["difficulty"] = p.Difficulty
	}
	if p.BloomsLevel != "" {
		m["use_blooms_taxonomy"] = true
		m["blooms_taxonomy_level"] = strings.ToLower(p.BloomsLevel)
	}
	return m
}

// AnswerSubmission is one answer picked in quiz mode.
type AnswerSubmission struct {
	QuestionID string          `json:"question_id"`
	UserAnswer question.Answer `json:"user_answer"`
}

type QuizSubmission struct {
	WorksheetID string             `json:"worksheet_id"`
	Answers     []AnswerSubmission `json:"answers"`
}

type QuizAnswer struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	QuestionID  string          `json:"question_id"`
	WorksheetID string          `json:"worksheet_id"`
	UserAnswer  question.Answer `json:"user_answer"`
	IsCorrect   bool            `json:"is_correct"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

type QuizResult struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	WorksheetID     string `json:"worksheet_id"`
	TotalQuestions  int    `json:"total_questions"`
	CorrectAnswers  int    `json:"correct_answers"`
	ScorePercentage int    `json:"score_percentage"`
	CompletedAt     string `json:"completed_at,omitempty"`
}

type FeedbackType string

const (
	ThumbsUp   FeedbackType = "thumbs_up"
	ThumbsDown FeedbackType = "thumbs_down"
)

type QuizFeedback struct {
	ID           string       `json:"id,omitempty"`
	UserID       string       `json:"user_id,omitempty"`
	WorksheetID  string       `json:"worksheet_id"`
	FeedbackType FeedbackType `json:"feedback_type"`
	Comment      string       `json:"comment,omitempty"`
	CreatedAt    string       `json:"created_at,omitempty"`
}
