package live

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoSession is returned when no session is registered for a project.
var ErrNoSession = errors.New("no live session")

// Session statuses.
const (
	StatusRunning     = "running"
	StatusLiquidating = "liquidating"
	StatusStopped     = "stopped"
)

// Session is one local live deployment tracked in the registry.
type Session struct {
	ProjectDir   string
	ContainerID  string
	DeploymentID string
	Brokerage    string
	Status       string
	StartedAt    time.Time
	StoppedAt    *time.Time
}

// Store persists live sessions in a sqlite registry so later invocations can
// address running deployments.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	project_dir   TEXT PRIMARY KEY,
	container_id  TEXT NOT NULL,
	deployment_id TEXT NOT NULL DEFAULT '',
	brokerage     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	stopped_at    TEXT
);
`

// OpenStore opens (and if needed creates) the session registry at path.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session registry: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping session registry: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session registry: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put registers or replaces the session for a project.
func (s *Store) Put(ctx context.Context, sess Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now().UTC()
	}
	var stopped any
	if sess.StoppedAt != nil {
		stopped = sess.StoppedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions(project_dir, container_id, deployment_id, brokerage, status, started_at, stopped_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_dir) DO UPDATE SET
	container_id=excluded.container_id,
	deployment_id=excluded.deployment_id,
	brokerage=excluded.brokerage,
	status=excluded.status,
	started_at=excluded.started_at,
	stopped_at=excluded.stopped_at
`, sess.ProjectDir, sess.ContainerID, sess.DeploymentID, sess.Brokerage, sess.Status,
		sess.StartedAt.UTC().Format(time.RFC3339Nano), stopped)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Get returns the session for a project, or ErrNoSession.
func (s *Store) Get(ctx context.Context, projectDir string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT project_dir, container_id, deployment_id, brokerage, status, started_at, stopped_at
FROM sessions WHERE project_dir = ?`, projectDir)

	var (
		sess      Session
		startedAt string
		stoppedAt sql.NullString
	)
	err := row.Scan(&sess.ProjectDir, &sess.ContainerID, &sess.DeploymentID,
		&sess.Brokerage, &sess.Status, &startedAt, &stoppedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", projectDir, ErrNoSession)
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	if err := sess.parseTimes(startedAt, stoppedAt); err != nil {
		return nil, err
	}
	return &sess, nil
}

// parseTimes decodes the stored timestamps. A value that does not parse
// means the registry was tampered with or corrupted; surface that rather
// than handing out zero times.
func (sess *Session) parseTimes(startedAt string, stoppedAt sql.NullString) error {
	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return fmt.Errorf("corrupt started_at for %s: %w", sess.ProjectDir, err)
	}
	sess.StartedAt = t
	if stoppedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, stoppedAt.String)
		if err != nil {
			return fmt.Errorf("corrupt stopped_at for %s: %w", sess.ProjectDir, err)
		}
		sess.StoppedAt = &t
	}
	return nil
}

// SetStatus transitions the session's status, recording the stop time for
// terminal transitions.
func (s *Store) SetStatus(ctx context.Context, projectDir, status string) error {
	var stopped any
	if status == StatusStopped {
		stopped = time.Now().UTC().Format(time.RFC3339Nano)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, stopped_at = COALESCE(?, stopped_at) WHERE project_dir = ?`,
		status, stopped, projectDir)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", projectDir, ErrNoSession)
	}
	return nil
}

// Delete drops the session record once teardown is confirmed.
func (s *Store) Delete(ctx context.Context, projectDir string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE project_dir = ?`, projectDir)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns every tracked session ordered by start time, newest first.
func (s *Store) List(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT project_dir, container_id, deployment_id, brokerage, status, started_at, stopped_at
FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			sess      Session
			startedAt string
			stoppedAt sql.NullString
		)
		if err := rows.Scan(&sess.ProjectDir, &sess.ContainerID, &sess.DeploymentID,
			&sess.Brokerage, &sess.Status, &startedAt, &stoppedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if err := sess.parseTimes(startedAt, stoppedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
