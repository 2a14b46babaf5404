// Package workspace holds the per-session working copy of generated
// questions together with the selection cascade and display preferences.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-worksheets/internal/cascade"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

type Mode string

const (
	ModeWorksheet Mode = "worksheet"
	ModeQuiz      Mode = "quiz"
	ModeExam      Mode = "exam"
)

func (m Mode) Valid() bool {
	return m == ModeWorksheet || m == ModeQuiz || m == ModeExam
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

type Workspace struct {
	ID          string              `json:"id"`
	Mode        Mode                `json:"mode"`
	Topic       string              `json:"topic"`
	TopicID     string              `json:"topic_id"`
	SubjectName string              `json:"subject_name"`
	ExamTopics  []cascade.Option    `json:"exam_topics"`
	Questions   []question.Question `json:"questions"`
	Cascade     cascade.State       `json:"cascade"`
	Theme       Theme               `json:"theme,omitempty"`
	WorksheetID string              `json:"worksheet_id,omitempty"`
	Submitted   bool                `json:"submitted"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ExamTopicIDs lists the ids of the topics picked for an exam.
func (w Workspace) ExamTopicIDs() []string {
	out := make([]string, len(w.ExamTopics))
	for i, t := range w.ExamTopics {
		out[i] = t.ID
	}
	return out
}

// AddExamTopic appends t unless it is already present.
func (w *Workspace) AddExamTopic(t cascade.Option) {
	for _, e := range w.ExamTopics {
		if e.ID == t.ID {
			return
		}
	}
	w.ExamTopics = append(w.ExamTopics, t)
}

func (w *Workspace) RemoveExamTopic(id string) {
	out := w.ExamTopics[:0]
	for _, e := range w.ExamTopics {
		if e.ID != id {
			out = append(out, e)
		}
	}
	w.ExamTopics = out
}

// SetQuestions replaces the working copy after a generation.
func (w *Workspace) SetQuestions(qs []question.Question) {
	w.Questions = qs
	w.WorksheetID = ""
	w.Submitted = false
}

var ErrNotFound = errors.New("workspace not found")

// Store persists workspaces. Update applies fn atomically: concurrent
// updates of the same id are serialised and readers never observe a partial
// change. When fn returns an error nothing is written.
type Store interface {
	Get(ctx context.Context, id string) (Workspace, error)
	Update(ctx context.Context, id string, fn func(*Workspace) error) (Workspace, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context, before time.Time) (int, error)
}

func encode(w Workspace) ([]byte, error) { return json.Marshal(w) }

func decode(b []byte) (Workspace, error) {
	var w Workspace
	err := json.Unmarshal(b, &w)
	return w, err
}
