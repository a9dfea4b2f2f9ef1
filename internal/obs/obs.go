// Package obs provides structured logging setup and a SQLite-backed
// append-only audit log for tool invocations, provider attempts, and
// orchestrator stage transitions. It never blocks or fails the request
// path: logging errors are swallowed into slog.
package obs

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shopagent/runtime/internal/ids"
)

// NewLogger builds the process-wide slog.Logger from a level string
// ("debug"|"info"|"warn"|"error"), JSON-encoded to stdout.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// AuditEvent is an append-only record of something the runtime did.
type AuditEvent struct {
	Kind      string // "tool_call" | "provider_attempt" | "orchestrator_stage"
	Tool      string
	SessionID string
	Detail    string
	OK        bool
}

// Log writes audit events to a SQLite-backed table and answers health
// checks. A nil *Log is valid and LogEvent becomes a no-op, so callers that
// run without an audit store (e.g. unit tests) don't need a special case.
type Log struct {
	db    *sql.DB
	newID ids.Generator
}

// Open opens (creating if necessary) the SQLite audit database at path and
// ensures its schema exists.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Log{db: db, newID: ids.Prefixed("evt_", ids.Default)}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			event_id    TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			tool        TEXT,
			session_id  TEXT,
			detail      TEXT,
			ok          INTEGER NOT NULL,
			created_at  INTEGER NOT NULL
		)`)
	return err
}

// LogEvent records an audit event. Failures are logged via slog, never
// returned, so a failing audit store can't take down a request.
func (l *Log) LogEvent(ctx context.Context, ev AuditEvent) {
	if l == nil || l.db == nil {
		return
	}
	id := l.newID()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audit_events (event_id, kind, tool, session_id, detail, ok, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		id, ev.Kind, ev.Tool, ev.SessionID, ev.Detail, ev.OK, time.Now().Unix())
	if err != nil {
		slog.Error("obs: audit log write failed", "error", err, "kind", ev.Kind)
	}
}

// Ping reports whether the audit database is reachable, for GET /health's
// auditDbOk field.
func (l *Log) Ping(ctx context.Context) bool {
	if l == nil || l.db == nil {
		return false
	}
	return l.db.PingContext(ctx) == nil
}

// RetentionConfig specifies, in days, how long audit_events rows are kept.
type RetentionConfig struct {
	Days           int
	RunVacuumAfter bool
}

// Cleanup deletes audit_events rows older than cfg.Days.
func (l *Log) Cleanup(ctx context.Context, cfg RetentionConfig) error {
	if l == nil || l.db == nil || cfg.Days <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(cfg.Days)*86400
	if _, err := l.db.ExecContext(ctx, "DELETE FROM audit_events WHERE created_at < ?", cutoff); err != nil {
		return err
	}
	if cfg.RunVacuumAfter {
		_, err := l.db.ExecContext(ctx, "VACUUM")
		return err
	}
	return nil
}

// Close closes the underlying database handle.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
