package workspace

import (
	"errors"
	"sync"
)

var ErrBusy = errors.New("action already in progress")

// Guard makes generate, save, export and submit exclusive per session and
// action while the slow part (backend call or conversion) is in flight.
type Guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewGuard() *Guard { return &Guard{busy: map[string]struct{}{}} }

// Acquire marks action as running for session. The returned release must be
// called exactly once; ErrBusy means another request holds it.
func (g *Guard) Acquire(session, action string) (release func(), err error) {
	key := session + "\x00" + action
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[key]; ok {
		return nil, ErrBusy
	}
	g.busy[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, nil
}

func (g *Guard) Busy(session, action string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[session+"\x00"+action]
	return ok
}
