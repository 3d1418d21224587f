package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lotas/autopin/internal/applog"
	_ "modernc.org/sqlite"
)

// Change describes a settings value that was written. Old is nil when
// the key did not exist before; New is nil when it was deleted.
type Change struct {
	Key string
	Old json.RawMessage
	New json.RawMessage
}

// Store is a key/value settings store backed by sqlite. Values are JSON
// documents. Subscribers are told about every value that changes, both
// through Save/Delete on this Store and, once Watch runs, through writes
// made by other processes sharing the database file.
type Store struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	cache   map[string]string
	subs    map[int]func(Change)
	nextSub int
}

// migration is a numbered schema change. Migrations are applied in order
// and tracked in the schema_migrations table so each runs exactly once.
type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "settings table",
		SQL: `
CREATE TABLE settings (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
	},
}

// Open opens (creating if needed) the settings database at path and
// applies pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// busy_timeout is per connection, so it goes in the DSN where every
	// pooled connection picks it up.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{
		db:    db,
		path:  path,
		subs:  make(map[int]func(Change)),
		cache: make(map[string]string),
	}
	rows, err := s.readAll(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	s.cache = rows
	return s, nil
}

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}

		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// DefaultDBPath returns ~/.local/share/autopin/autopin.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "autopin", "autopin.db"), nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored value for key. The boolean is false when the
// key is absent.
func (s *Store) Load(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load setting %q: %w", key, err)
	}
	return json.RawMessage(value), true, nil
}

// Save stores value under key. A json.RawMessage or []byte is stored as
// is; anything else is JSON-encoded first. Subscribers are notified only
// when the stored document actually changes.
func (s *Store) Save(ctx context.Context, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}

	s.mu.Lock()
	old, had := s.cache[key]
	if had && old == data {
		s.mu.Unlock()
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data,
	)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	s.cache[key] = data
	s.mu.Unlock()

	applog.Info("settings.saved", "key", key, "bytes", len(data))
	ch := Change{Key: key, New: json.RawMessage(data)}
	if had {
		ch.Old = json.RawMessage(old)
	}
	s.notify([]Change{ch})
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	old, had := s.cache[key]
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	delete(s.cache, key)
	s.mu.Unlock()

	if had {
		s.notify([]Change{{Key: key, Old: json.RawMessage(old)}})
	}
	return nil
}

// Keys returns all stored keys in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs on the goroutine that observed the change and
// must not call back into Save.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Refresh re-reads every value from the database and notifies
// subscribers of the keys whose value differs from the last one seen.
// The read happens under the same lock as Save, so a value this process
// just wrote is never mistaken for an outside change.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	rows, err := s.readAll(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	var changes []Change
	for k, v := range rows {
		old, had := s.cache[k]
		if had && old == v {
			continue
		}
		ch := Change{Key: k, New: json.RawMessage(v)}
		if had {
			ch.Old = json.RawMessage(old)
		}
		changes = append(changes, ch)
	}
	for k, old := range s.cache {
		if _, ok := rows[k]; !ok {
			changes = append(changes, Change{Key: k, Old: json.RawMessage(old)})
		}
	}
	s.cache = rows
	s.mu.Unlock()

	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	for _, ch := range changes {
		applog.Info("settings.external_change", "key", ch.Key)
	}
	s.notify(changes)
	return nil
}

func (s *Store) readAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

func (s *Store) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, ch := range changes {
		for _, fn := range fns {
			fn(ch)
		}
	}
}

func encode(value any) (string, error) {
	var data []byte
	switch v := value.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		data = b
	}
	if !json.Valid(data) {
		return "", fmt.Errorf("value is not valid JSON")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
