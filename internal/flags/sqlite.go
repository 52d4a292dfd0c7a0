package flags

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// DBFile is the database filename used by the sqlite backend inside the flag directory.
const DBFile = "flags.db"

// defaultBusyTimeoutMS is the SQLite busy_timeout in milliseconds.
// Override with MEMHOOK_BUSY_TIMEOUT_MS. Kept small: hooks run under a host deadline.
const defaultBusyTimeoutMS = 1000

// SQLiteStore keeps flags as rows of a single table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) dir/flags.db and applies migrations.
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create flag directory: %w", err)
	}
	dbPath := filepath.Join(dir, DBFile)

	// modernc.org/sqlite is strict about DSNs; mode=rwc creates the file when missing.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open flag database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busyTimeout := defaultBusyTimeoutMS
	if v := os.Getenv("MEMHOOK_BUSY_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			busyTimeout = parsed
		}
	}

	pragmas := []string{
		// busy_timeout first so the WAL switch waits on locks held by other hook processes.
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=WAL",
	}
	for _, pragma := range pragmas {
		if err := retryWithBackoff(func() error {
			_, err := db.ExecContext(context.Background(), pragma)
			return err
		}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	if err := migrateDB(db, dbPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Write(key string, data []byte) error {
	return retryWithBackoff(func() error {
		_, err := s.db.Exec(
			`INSERT INTO flags (key, data, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			key, data, s.now().Unix(),
		)
		return err
	})
}

func (s *SQLiteStore) Read(key string) ([]byte, bool) {
	var data []byte
	// sql.ErrNoRows and driver errors alike read as absence.
	if err := s.db.QueryRow(`SELECT data FROM flags WHERE key = ?`, key).Scan(&data); err != nil {
		return nil, false
	}
	return data, true
}

func (s *SQLiteStore) Delete(key string) {
	_ = retryWithBackoff(func() error {
		_, err := s.db.Exec(`DELETE FROM flags WHERE key = ?`, key)
		return err
	})
}

func (s *SQLiteStore) Sweep(maxAge time.Duration, now time.Time) int {
	cutoff := now.Add(-maxAge).Unix()
	var removed int64
	_ = retryWithBackoff(func() error {
		res, err := s.db.Exec(`DELETE FROM flags WHERE updated_at < ?`, cutoff)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return int(removed)
}

func (s *SQLiteStore) List() []Entry {
	rows, err := s.db.Query(`SELECT key, length(data), updated_at FROM flags ORDER BY key`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			updated int64
		)
		if err := rows.Scan(&e.Key, &e.Size, &updated); err != nil {
			continue
		}
		e.ModTime = time.Unix(updated, 0)
		out = append(out, e)
	}
	return out
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
