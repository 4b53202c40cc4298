// Package sqlite provides a single-file storage backend for local runs and
// tests. It implements the event store, view store and queues of package
// storage on one SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/storage"
	"github.com/spine-examples/todo-list/storage/sqlite/migrations"
	"github.com/spine-examples/todo-list/views"
)

const migrationTable = "schema_migrations"

// Store persists events, views and queue messages in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the event stream of one aggregate ordered by version.
func (s *Store) Load(ctx context.Context, entityType, entityID string) ([]domain.EventMessage, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT message_id, event_type, data, version, event_timestamp, user_id, causation_id
FROM events
WHERE entity_type = ? AND entity_id = ?
ORDER BY version
`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var out []domain.EventMessage
	for rows.Next() {
		msg := domain.EventMessage{EntityType: entityType, EntityID: entityID}
		var eventType, data string
		if err := rows.Scan(&msg.ID, &eventType, &data, &msg.Version, &msg.Timestamp, &msg.UserID, &msg.CausationID); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		msg.Type = domain.EventType(eventType)
		msg.Data = []byte(data)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// Append stores msg under its version.
func (s *Store) Append(ctx context.Context, msg domain.EventMessage) error {
	if msg.Version <= 0 {
		return fmt.Errorf("event %s: invalid version %d", msg.Type, msg.Version)
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO events (
	entity_type,
	entity_id,
	version,
	message_id,
	event_type,
	data,
	event_timestamp,
	user_id,
	causation_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		msg.EntityType,
		msg.EntityID,
		msg.Version,
		msg.ID,
		string(msg.Type),
		string(msg.Data),
		msg.Timestamp,
		msg.UserID,
		msg.CausationID,
	)
	if isConstraintViolation(err) {
		return domain.ErrConcurrencyConflict
	}
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// GetView returns the stored snapshot for key. The ETag is the row revision.
func (s *Store) GetView(ctx context.Context, key views.Key) (storage.ViewRecord, bool, error) {
	var (
		data     string
		revision int64
		ts       int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT data, revision, event_timestamp FROM views WHERE kind = ? AND id = ?`,
		string(key.Kind), key.ID,
	).Scan(&data, &revision, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ViewRecord{Key: key}, false, nil
	}
	if err != nil {
		return storage.ViewRecord{}, false, fmt.Errorf("get view %s: %w", key, err)
	}
	return storage.ViewRecord{
		Key:            key,
		Data:           []byte(data),
		ETag:           strconv.FormatInt(revision, 10),
		EventTimestamp: ts,
	}, true, nil
}

// PutView inserts rec when it has no ETag and otherwise replaces the revision
// the ETag names.
func (s *Store) PutView(ctx context.Context, rec storage.ViewRecord) error {
	if rec.ETag == "" {
		_, err := s.sqlDB.ExecContext(ctx,
			`INSERT INTO views (kind, id, data, revision, event_timestamp) VALUES (?, ?, ?, 1, ?)`,
			string(rec.Key.Kind), rec.Key.ID, string(rec.Data), rec.EventTimestamp,
		)
		if isConstraintViolation(err) {
			return domain.ErrConcurrencyConflict
		}
		if err != nil {
			return fmt.Errorf("insert view %s: %w", rec.Key, err)
		}
		return nil
	}
	revision, err := strconv.ParseInt(rec.ETag, 10, 64)
	if err != nil {
		return fmt.Errorf("view %s: invalid etag %q", rec.Key, rec.ETag)
	}
	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE views
SET data = ?, revision = revision + 1, event_timestamp = ?
WHERE kind = ? AND id = ? AND revision = ?
`, string(rec.Data), rec.EventTimestamp, string(rec.Key.Kind), rec.Key.ID, revision)
	if err != nil {
		return fmt.Errorf("update view %s: %w", rec.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update view %s: %w", rec.Key, err)
	}
	if n == 0 {
		return domain.ErrConcurrencyConflict
	}
	return nil
}

// ListViewKeys returns the ids of all stored views of kind.
func (s *Store) ListViewKeys(ctx context.Context, kind views.Kind) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id FROM views WHERE kind = ? ORDER BY id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan view id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// applyMigrations runs every embedded .sql file not yet recorded in the
// migration table, each in its own transaction.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var found int
		err := sqlDB.QueryRow(`SELECT 1 FROM `+migrationTable+` WHERE name = ?`, file).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := sqlDB.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(upMigration(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`, file, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// upMigration returns the SQL between the Up and Down markers.
func upMigration(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	if i := strings.Index(content, up); i >= 0 {
		content = content[i+len(up):]
	}
	if i := strings.Index(content, down); i >= 0 {
		content = content[:i]
	}
	return content
}

var (
	_ storage.EventStore = (*Store)(nil)
	_ storage.ViewStore  = (*Store)(nil)
)
