package workspace

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-worksheets/internal/cascade"
	"github.com/mind-engage/mindengage-worksheets/internal/db"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+filepath.Join(t.TempDir(), "ws.db")+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return map[string]Store{
		"memory": NewInMemoryStore(),
		"sqlite": NewSQLStore(conn, db.DriverSQLite),
	}
}

func qs(ids ...string) []question.Question {
	out := make([]question.Question, len(ids))
	for i, id := range ids {
		out[i] = question.Question{ID: id, Type: question.TypeMCQ, Text: id, Options: []string{"x", "y"},
			CorrectAnswer: question.MultiIndex(0, 1), Marks: 1}
	}
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Get(ctx, "sess")
			assert.True(t, errors.Is(err, ErrNotFound))

			w, err := s.Update(ctx, "sess", func(w *Workspace) error {
				w.Topic = "Fractions"
				w.SetQuestions(qs("a", "b", "c"))
				w.AddExamTopic(cascade.Option{ID: "t1", Name: "One"})
				w.AddExamTopic(cascade.Option{ID: "t1", Name: "One"})
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, "sess", w.ID)
			assert.False(t, w.UpdatedAt.IsZero())

			got, err := s.Get(ctx, "sess")
			require.NoError(t, err)
			assert.Equal(t, "Fractions", got.Topic)
			assert.Equal(t, []string{"a", "b", "c"}, question.IDs(got.Questions))
			assert.Equal(t, question.MultiIndex(0, 1), got.Questions[0].CorrectAnswer)
			assert.Equal(t, []string{"t1"}, got.ExamTopicIDs())

			require.NoError(t, s.Delete(ctx, "sess"))
			_, err = s.Get(ctx, "sess")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Update(ctx, "s", func(w *Workspace) error { w.Topic = "kept"; return nil })
			require.NoError(t, err)
			boom := errors.New("boom")
			_, err = s.Update(ctx, "s", func(w *Workspace) error { w.Topic = "lost"; return boom })
			assert.True(t, errors.Is(err, boom))
			got, err := s.Get(ctx, "s")
			require.NoError(t, err)
			assert.Equal(t, "kept", got.Topic)
		})
	}
}

func TestReaderNeverSharesSlices(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	_, err := s.Update(ctx, "s", func(w *Workspace) error { w.SetQuestions(qs("a", "b")); return nil })
	require.NoError(t, err)
	got, err := s.Get(ctx, "s")
	require.NoError(t, err)
	got.Questions[0].Options[0] = "mutated"
	again, err := s.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "x", again.Questions[0].Options[0])
}

func TestConcurrentMovesStayConsistent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ids := []string{"a", "b", "c", "d", "e", "f"}
			_, err := s.Update(ctx, "s", func(w *Workspace) error { w.SetQuestions(qs(ids...)); return nil })
			require.NoError(t, err)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := s.Update(ctx, "s", func(w *Workspace) error {
						moved, err := question.Move(w.Questions, i%6, (i*5)%6)
						if err != nil {
							return err
						}
						w.Questions = moved
						return nil
					})
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			got, err := s.Get(ctx, "s")
			require.NoError(t, err)
			assert.ElementsMatch(t, ids, question.IDs(got.Questions))
		})
	}
}

func TestSweep(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Update(ctx, "old", func(*Workspace) error { return nil })
			require.NoError(t, err)
			n, err := s.Sweep(ctx, time.Now().Add(-time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 0, n)
			n, err = s.Sweep(ctx, time.Now().Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestRemoveExamTopic(t *testing.T) {
	w := Workspace{ExamTopics: []cascade.Option{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	w.RemoveExamTopic("b")
	assert.Equal(t, []string{"a", "c"}, w.ExamTopicIDs())
}

func TestGuard(t *testing.T) {
	g := NewGuard()
	release, err := g.Acquire("s1", "generate")
	require.NoError(t, err)

	_, err = g.Acquire("s1", "generate")
	assert.True(t, errors.Is(err, ErrBusy))

	other, err := g.Acquire("s1", "export")
	require.NoError(t, err)
	other()

	elsewhere, err := g.Acquire("s2", "generate")
	require.NoError(t, err)
	elsewhere()

	assert.True(t, g.Busy("s1", "generate"))
	release()
	release()
	assert.False(t, g.Busy("s1", "generate"))
	again, err := g.Acquire("s1", "generate")
	require.NoError(t, err)
	again()
}
