package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/mazvydas/kasdien/internal/profile"
	"github.com/mazvydas/kasdien/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database pointed at by the profile DSN and ensures
// the key-value schema exists.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// WAL keeps reads open while the engine persists answers.
	db, err := sql.Open("sqlite", profile.DSN+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent submissions.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	driver := &DB{
		db:      db,
		profile: profile,
	}
	if err := driver.migrate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to migrate sqlite schema")
	}

	return driver, nil
}

func (d *DB) migrate(ctx context.Context) error {
	stmt := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_ts BIGINT NOT NULL
		)
	`
	_, err := d.db.ExecContext(ctx, stmt)
	return err
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) GetValue(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get value for key %s", key)
	}
	return value, true, nil
}

func (d *DB) SetValue(ctx context.Context, key string, value []byte) error {
	stmt := `
		INSERT INTO kv (key, value, updated_ts)
		VALUES (?, ?, ?)
		ON CONFLICT (key)
		DO UPDATE SET value = excluded.value, updated_ts = excluded.updated_ts
	`
	if _, err := d.db.ExecContext(ctx, stmt, key, value, time.Now().Unix()); err != nil {
		return errors.Wrapf(err, "failed to set value for key %s", key)
	}
	return nil
}

func (d *DB) DeleteValue(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.Wrapf(err, "failed to delete value for key %s", key)
	}
	return nil
}

func (d *DB) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT key FROM kv WHERE key LIKE ? || '%' ORDER BY key`, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list keys with prefix %s", prefix)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "failed to scan key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate keys")
	}
	return keys, nil
}
