package session

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// KV is the minimal key/value area the session writes through to. The
// session reads it once at startup and treats it as write-only afterward.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// SQLiteKV persists session keys in a single-table SQLite database.
type SQLiteKV struct {
	sql *sql.DB
}

func OpenKV(path string) (*SQLiteKV, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS kv (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
	`); err != nil {
		return nil, err
	}
	return &SQLiteKV{sql: db}, nil
}

func (k *SQLiteKV) Close() error {
	if k == nil || k.sql == nil {
		return nil
	}
	return k.sql.Close()
}

func (k *SQLiteKV) Get(key string) (string, bool, error) {
	var value string
	err := k.sql.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (k *SQLiteKV) Set(key, value string) error {
	_, err := k.sql.Exec(`INSERT INTO kv(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (k *SQLiteKV) Delete(keys ...string) error {
	for _, key := range keys {
		if _, err := k.sql.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
			return err
		}
	}
	return nil
}
