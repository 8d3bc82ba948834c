package tracelog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Directions recorded for each wire exchange.
const (
	// DirectionWrite marks a line sent to the bridge.
	DirectionWrite = "tx"

	// DirectionRead marks a payload read back from the bridge.
	DirectionRead = "rx"
)

// schema creates the trace table on first use. One row per wire exchange,
// grouped by the session UUID assigned when the recorder is created.
const schema = `
	CREATE TABLE IF NOT EXISTS gpib_trace (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		session   TEXT    NOT NULL,
		direction TEXT    NOT NULL CHECK (direction IN ('tx', 'rx')),
		payload   TEXT    NOT NULL,
		at        INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_gpib_trace_at ON gpib_trace(at DESC);
	CREATE INDEX IF NOT EXISTS idx_gpib_trace_session ON gpib_trace(session);
`

// Logger interface for optional logging.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Entry is one recorded wire exchange.
type Entry struct {
	ID        int64     `json:"id"`
	Session   string    `json:"session"`
	Direction string    `json:"direction"`
	Payload   string    `json:"payload"`
	At        time.Time `json:"at"`
}

// Recorder passively records wire traffic between the controller and the
// bridge, building a replayable log of every session. It implements the
// controller's TraceRecorder hook.
//
// Recording failures are logged and swallowed: the trace is diagnostics,
// never allowed to fail the wire.
//
// Thread Safety: All methods are safe for concurrent use.
type Recorder struct {
	db      *sql.DB
	session string
	logger  Logger

	// Prepared insert (created once in Start, reused)
	insertStmt *sql.Stmt
	stmtMu     sync.Mutex

	// Shutdown coordination
	closed bool
	mu     sync.RWMutex
}

// New creates a recorder writing to the given database. A fresh session
// UUID groups everything recorded by this instance.
func New(db *sql.DB) *Recorder {
	return &Recorder{
		db:      db,
		session: uuid.NewString(),
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Session returns the session UUID for this recorder instance.
func (r *Recorder) Session() string {
	return r.session
}

// Start creates the trace schema and prepares the insert statement.
// Must be called before recording. Calling Start twice is a no-op.
func (r *Recorder) Start() error {
	r.stmtMu.Lock()
	defer r.stmtMu.Unlock()

	if r.insertStmt != nil {
		return nil // Already started
	}

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("creating trace schema: %w", err)
	}

	stmt, err := r.db.Prepare(`
		INSERT INTO gpib_trace (session, direction, payload, at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing trace insert: %w", err)
	}

	r.insertStmt = stmt
	r.log("trace recorder started", "session", r.session)
	return nil
}

// Stop closes the recorder and releases resources.
func (r *Recorder) Stop() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.stmtMu.Lock()
	defer r.stmtMu.Unlock()

	if r.insertStmt != nil {
		r.insertStmt.Close()
		r.insertStmt = nil
	}

	r.log("trace recorder stopped", "session", r.session)
}

// RecordWrite records a line sent to the bridge.
func (r *Recorder) RecordWrite(text string) {
	r.record(DirectionWrite, text)
}

// RecordRead records a payload read back from the bridge.
func (r *Recorder) RecordRead(text string) {
	r.record(DirectionRead, text)
}

func (r *Recorder) record(direction, payload string) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.stmtMu.Lock()
	stmt := r.insertStmt
	r.stmtMu.Unlock()

	if stmt == nil {
		return // Not started
	}

	if _, err := stmt.Exec(r.session, direction, payload, time.Now().UnixMilli()); err != nil {
		r.logError("recording trace entry", err)
	}
}

// Recent returns the most recent entries across all sessions, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session, direction, payload, at
		FROM gpib_trace
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// SessionEntries returns every entry of one session in wire order.
func (r *Recorder) SessionEntries(ctx context.Context, session string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session, direction, payload, at
		FROM gpib_trace
		WHERE session = ?
		ORDER BY id ASC
	`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the number of recorded entries across all sessions.
func (r *Recorder) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gpib_trace`).Scan(&count)
	return count, err
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.ID, &e.Session, &e.Direction, &e.Payload, &at); err != nil {
			return nil, err
		}
		e.At = time.UnixMilli(at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// log logs an info message if logger is set.
func (r *Recorder) log(msg string, keysAndValues ...any) {
	if r.logger != nil {
		r.logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error if logger is set.
func (r *Recorder) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, "error", err)
	}
}
