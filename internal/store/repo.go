package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// Get returns the value stored under key and whether it exists.
func (db *DB) Get(key string) (string, bool, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return v, true, nil
}

// Put inserts or replaces the value under key.
func (db *DB) Put(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

// getJSON decodes the value under key into v. It reports false when the key is
// absent or holds undecodable JSON; the latter is treated like a missing key
// so a corrupt entry falls back to defaults.
func (db *DB) getJSON(key string, v any) (bool, error) {
	raw, ok, err := db.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, nil
	}
	return true, nil
}

func (db *DB) putJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return db.Put(key, string(b))
}

// LoadConfig returns the persisted AppConfig, or nil if none is stored.
func (db *DB) LoadConfig() (*models.AppConfig, error) {
	var cfg models.AppConfig
	ok, err := db.getJSON(KeyConfig, &cfg)
	if err != nil || !ok {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig persists cfg.
func (db *DB) SaveConfig(cfg models.AppConfig) error {
	return db.putJSON(KeyConfig, cfg)
}

// LoadFlow returns the persisted tree, or nil if none is stored.
func (db *DB) LoadFlow() (*models.FlowNode, error) {
	var root models.FlowNode
	ok, err := db.getJSON(KeyFlow, &root)
	if err != nil || !ok || root.ID == "" {
		return nil, err
	}
	return &root, nil
}

// SaveFlow persists the tree.
func (db *DB) SaveFlow(root *models.FlowNode) error {
	return db.putJSON(KeyFlow, root)
}

// LoadPhones returns the persisted directory, or nil if none is stored.
func (db *DB) LoadPhones() ([]models.PhoneEntry, error) {
	var entries []models.PhoneEntry
	ok, err := db.getJSON(KeyPhones, &entries)
	if err != nil || !ok {
		return nil, err
	}
	if entries == nil {
		entries = []models.PhoneEntry{}
	}
	return entries, nil
}

// SavePhones persists the directory.
func (db *DB) SavePhones(entries []models.PhoneEntry) error {
	if entries == nil {
		entries = []models.PhoneEntry{}
	}
	return db.putJSON(KeyPhones, entries)
}

// CreateSession records a login session.
func (db *DB) CreateSession(token string, expiresAt time.Time) error {
	_, err := db.conn.Exec(`INSERT INTO sessions (token, created_at, expires_at) VALUES (?, ?, ?)`,
		token, time.Now().UTC(), expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

// SessionValid reports whether token exists and has not expired at now.
func (db *DB) SessionValid(token string, now time.Time) (bool, error) {
	var expires time.Time
	err := db.conn.QueryRow(`SELECT expires_at FROM sessions WHERE token = ?`, token).Scan(&expires)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: session lookup: %w", err)
	}
	return now.Before(expires), nil
}

// DeleteSession removes a session. Missing tokens are not an error.
func (db *DB) DeleteSession(token string) error {
	if _, err := db.conn.Exec(`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	return nil
}

// PurgeSessions deletes sessions expired at now and returns how many went.
func (db *DB) PurgeSessions(now time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("store: purge sessions: %w", err)
	}
	return res.RowsAffected()
}
