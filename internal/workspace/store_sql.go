package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-worksheets/internal/db"
)

// SQLStore keeps one JSON row per workspace. Updates run in a transaction;
// on Postgres the row is locked with FOR UPDATE, on sqlite writers are
// serialised in-process.
type SQLStore struct {
	db     *sql.DB
	driver db.Driver
	mu     sync.Mutex
	now    func() time.Time
}

func NewSQLStore(conn *sql.DB, driver db.Driver) *SQLStore {
	return &SQLStore{db: conn, driver: driver, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, id string) (Workspace, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM workspaces WHERE id=$1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Workspace{}, ErrNotFound
	}
	if err != nil {
		return Workspace{}, err
	}
	return decode([]byte(data))
}

func (s *SQLStore) Update(ctx context.Context, id string, fn func(*Workspace) error) (Workspace, error) {
	if s.driver == db.DriverSQLite {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Workspace{}, err
	}
	defer tx.Rollback()

	q := `SELECT data FROM workspaces WHERE id=$1`
	if s.driver == db.DriverPostgres {
		q += ` FOR UPDATE`
	}
	w := Workspace{ID: id}
	var data string
	switch err := tx.QueryRowContext(ctx, q, id).Scan(&data); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Workspace{}, err
	default:
		if w, err = decode([]byte(data)); err != nil {
			return Workspace{}, fmt.Errorf("decode workspace %s: %w", id, err)
		}
	}

	if err := fn(&w); err != nil {
		return Workspace{}, err
	}
	w.ID = id
	w.UpdatedAt = s.now().UTC()
	buf, err := encode(w)
	if err != nil {
		return Workspace{}, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO workspaces (id,data,updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		id, string(buf), w.UpdatedAt.Unix())
	if err != nil {
		return Workspace{}, err
	}
	if err := tx.Commit(); err != nil {
		return Workspace{}, err
	}
	return w, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id=$1`, id)
	return err
}

func (s *SQLStore) Sweep(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE updated_at < $1`, before.Unix())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
