// Package activity records what a session did with its workspace: which
// questions were generated, saved, exported or submitted.
package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"
)

const (
	TypeGenerate = "generate"
	TypeSave     = "save"
	TypeExport   = "export"
	TypeSubmit   = "submit"
)

type Event struct {
	Offset    int64           `json:"offset"`
	Session   string          `json:"-"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Log appends events and lists a session's most recent ones, newest first.
type Log interface {
	Append(ctx context.Context, e Event) error
	Recent(ctx context.Context, session string, limit int) ([]Event, error)
}

// Data marshals v for Event.Data, returning nil when it cannot.
func Data(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

type SQLLog struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLLog(db *sql.DB) *SQLLog { return &SQLLog{db: db, now: time.Now} }

func (l *SQLLog) Append(ctx context.Context, e Event) error {
	data := string(e.Data)
	if data == "" {
		data = "null"
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO activity_log (session_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.Session, e.Type, e.Key, data, l.now().Unix())
	return err
}

func (l *SQLLog) Recent(ctx context.Context, session string, limit int) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, typ, key, data, created_at FROM activity_log
		 WHERE session_id=$1 ORDER BY id DESC LIMIT $2`, session, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var (
			e    Event
			data string
			at   int64
		)
		if err := rows.Scan(&e.Offset, &e.Type, &e.Key, &data, &at); err != nil {
			return nil, err
		}
		e.Session = session
		if data != "null" {
			e.Data = json.RawMessage(data)
		}
		e.CreatedAt = time.Unix(at, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Purge drops events older than before.
func (l *SQLLog) Purge(ctx context.Context, before time.Time) (int, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM activity_log WHERE created_at < $1`, before.Unix())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// MemoryLog keeps at most max events per session.
type MemoryLog struct {
	mu     sync.Mutex
	max    int
	next   int64
	events map[string][]Event
	now    func() time.Time
}

func NewMemoryLog(max int) *MemoryLog {
	if max <= 0 {
		max = 100
	}
	return &MemoryLog{max: max, events: map[string][]Event{}, now: time.Now}
}

func (l *MemoryLog) Append(_ context.Context, e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	e.Offset = l.next
	e.CreatedAt = l.now().UTC()
	evs := append(l.events[e.Session], e)
	if len(evs) > l.max {
		evs = evs[len(evs)-l.max:]
	}
	l.events[e.Session] = evs
	return nil
}

func (l *MemoryLog) Recent(_ context.Context, session string, limit int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	evs := l.events[session]
	var out []Event
	for i := len(evs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, evs[i])
	}
	return out, nil
}
