package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mazvydas/kasdien/internal/profile"
	"github.com/mazvydas/kasdien/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the PostgreSQL database pointed at by the profile DSN and
// ensures the key-value schema exists.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// Session traffic is small per user; keep the pool modest.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	driver := &DB{
		db:      db,
		profile: profile,
	}
	if err := driver.migrate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to migrate postgres schema")
	}

	return driver, nil
}

func (d *DB) migrate(ctx context.Context) error {
	stmt := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
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
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
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
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_ts = EXCLUDED.updated_ts
	`
	if _, err := d.db.ExecContext(ctx, stmt, key, value, time.Now().Unix()); err != nil {
		return errors.Wrapf(err, "failed to set value for key %s", key)
	}
	return nil
}

func (d *DB) DeleteValue(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, key); err != nil {
		return errors.Wrapf(err, "failed to delete value for key %s", key)
	}
	return nil
}

func (d *DB) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT key FROM kv WHERE key LIKE $1 || '%' ORDER BY key`, prefix)
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
