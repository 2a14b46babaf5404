// Package cascade tracks the grade, subject, chapter and topic selects. Each
// stage carries a generation counter so an option list fetched for a parent
// selection that has since changed is dropped instead of applied.
package cascade

import (
	"errors"
	"fmt"
)

type Stage int

const (
	Grade Stage = iota
	Subject
	Chapter
	Topic
	numStages
)

var stageNames = [...]string{"grade", "subject", "chapter", "topic"}

func (s Stage) String() string {
	if s < 0 || s >= numStages {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown cascade stage %q", name)
}

// Next is the stage whose options depend on s. ok is false for Topic.
func (s Stage) Next() (Stage, bool) {
	if s+1 >= numStages {
		return 0, false
	}
	return s + 1, true
}

var ErrStale = errors.New("response belongs to a superseded selection")

type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ticket identifies the option list a caller is about to fetch.
type Ticket struct {
	Stage      Stage  `json:"stage"`
	ParentID   string `json:"parent_id"`
	Generation uint64 `json:"generation"`
}

type level struct {
	Selected   string   `json:"selected"`
	Options    []Option `json:"options"`
	Generation uint64   `json:"generation"`
}

// State is plain data so it can be stored with a workspace. It is not safe
// for concurrent use; callers mutate it inside a workspace update.
type State struct {
	Levels [numStages]level `json:"levels"`
}

// Begin returns the ticket for loading the grade list.
func (s *State) Begin() Ticket {
	s.Levels[Grade].Generation++
	return Ticket{Stage: Grade, Generation: s.Levels[Grade].Generation}
}

// Select records id at stage, clears every downstream stage and returns the
// ticket for the next stage's options. ok is false when stage is Topic.
func (s *State) Select(stage Stage, id string) (t Ticket, ok bool, err error) {
	if stage < 0 || stage >= numStages {
		return Ticket{}, false, fmt.Errorf("select: %v", stage)
	}
	s.Levels[stage].Selected = id
	for d := stage + 1; d < numStages; d++ {
		s.Levels[d].Selected = ""
		s.Levels[d].Options = nil
		s.Levels[d].Generation++
	}
	next, ok := stage.Next()
	if !ok || id == "" {
		return Ticket{}, false, nil
	}
	return Ticket{Stage: next, ParentID: id, Generation: s.Levels[next].Generation}, true, nil
}

// Apply stores options fetched under t. It returns ErrStale when the stage
// has been reset since t was issued.
func (s *State) Apply(t Ticket, opts []Option) error {
	if t.Stage < 0 || t.Stage >= numStages {
		return fmt.Errorf("apply: %v", t.Stage)
	}
	if s.Levels[t.Stage].Generation != t.Generation {
		return fmt.Errorf("%w: %v generation %d, current %d", ErrStale, t.Stage, t.Generation, s.Levels[t.Stage].Generation)
	}
	s.Levels[t.Stage].Options = append([]Option(nil), opts...)
	return nil
}

func (s *State) Selected(stage Stage) string { return s.Levels[stage].Selected }

func (s *State) Options(stage Stage) []Option { return s.Levels[stage].Options }

// Name resolves the display name of the selection at stage.
func (s *State) Name(stage Stage) string {
	id := s.Levels[stage].Selected
	for _, o := range s.Levels[stage].Options {
		if o.ID == id {
			return o.Name
		}
	}
	return ""
}
