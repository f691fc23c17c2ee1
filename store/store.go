package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mazvydas/kasdien/internal/profile"
	"github.com/mazvydas/kasdien/store/cache"
)

// Store provides day-scoped access to session records and progress stats.
//
// Reads are cache-first and always return clones, so no two callers ever
// alias the same mutable record. Driver read or unmarshal failures are logged
// and treated as cache misses: the engine degrades to re-fetching instead of
// crashing, and the persistent layer stays the single source of truth on
// resume.
type Store struct {
	profile *profile.Profile
	driver  Driver

	cacheConfig cache.Config

	sessionCache *cache.Cache // cache for session records
	statsCache   *cache.Cache // cache for progress stats
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
	}

	return &Store{
		driver:       driver,
		profile:      profile,
		cacheConfig:  cacheConfig,
		sessionCache: cache.New(cacheConfig),
		statsCache:   cache.New(cacheConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.sessionCache.Close()
	s.statsCache.Close()
	return s.driver.Close()
}

func sessionStorageKey(key DayKey) string {
	return "session:" + key.String()
}

func statsStorageKey(userID string) string {
	return "stats:" + userID
}

// GetSessionRecord returns the session record for the given day key, or nil
// when none exists. Day rollover needs no deletion: yesterday's record lives
// under yesterday's key and today's lookup simply misses.
func (s *Store) GetSessionRecord(ctx context.Context, key DayKey) (*SessionRecord, error) {
	storageKey := sessionStorageKey(key)
	if cached, ok := s.sessionCache.Get(storageKey); ok {
		if record, ok := cached.(*SessionRecord); ok {
			return record.Clone(), nil
		}
	}

	data, found, err := s.driver.GetValue(ctx, storageKey)
	if err != nil {
		slog.Warn("failed to read session record, treating as miss",
			slog.String("day_key", key.String()), slog.String("error", err.Error()))
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	record := &SessionRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		slog.Warn("failed to unmarshal session record, treating as miss",
			slog.String("day_key", key.String()), slog.String("error", err.Error()))
		return nil, nil
	}

	s.sessionCache.Set(storageKey, record)
	return record.Clone(), nil
}

// UpsertSessionRecord persists the record under its day key. The cache is
// updated even when the driver write fails so an in-flight session survives
// until restart; the caller decides whether a persistence failure is fatal.
func (s *Store) UpsertSessionRecord(ctx context.Context, record *SessionRecord) error {
	record.UpdatedTs = time.Now().Unix()
	storageKey := sessionStorageKey(record.DayKey)
	// Cache a clone: the caller keeps mutating its record on later answers.
	s.sessionCache.Set(storageKey, record.Clone())

	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session record")
	}
	if err := s.driver.SetValue(ctx, storageKey, data); err != nil {
		return errors.Wrapf(err, "failed to persist session record %s", record.DayKey)
	}
	return nil
}

// ListSessionDates returns the UTC dates with a stored session record for the
// user, oldest first. Backs the dev-mode session listing.
func (s *Store) ListSessionDates(ctx context.Context, userID string) ([]string, error) {
	prefix := sessionStorageKey(DayKey{UserID: userID})
	keys, err := s.driver.ListKeys(ctx, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list sessions for %s", userID)
	}

	dates := make([]string, 0, len(keys))
	for _, key := range keys {
		dates = append(dates, strings.TrimPrefix(key, prefix))
	}
	return dates, nil
}

// DeleteSessionRecord removes the record for the given day key.
func (s *Store) DeleteSessionRecord(ctx context.Context, key DayKey) error {
	storageKey := sessionStorageKey(key)
	s.sessionCache.Delete(storageKey)
	if err := s.driver.DeleteValue(ctx, storageKey); err != nil {
		return errors.Wrapf(err, "failed to delete session record %s", key)
	}
	return nil
}

// GetProgressStats returns the cached progress stats copy for the user, or nil
// when the user has no recorded progress yet.
func (s *Store) GetProgressStats(ctx context.Context, userID string) (*UserProgressStats, error) {
	storageKey := statsStorageKey(userID)
	if cached, ok := s.statsCache.Get(storageKey); ok {
		if stats, ok := cached.(*UserProgressStats); ok {
			return stats.Clone(), nil
		}
	}

	data, found, err := s.driver.GetValue(ctx, storageKey)
	if err != nil {
		slog.Warn("failed to read progress stats, treating as miss",
			slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	stats := &UserProgressStats{}
	if err := json.Unmarshal(data, stats); err != nil {
		slog.Warn("failed to unmarshal progress stats, treating as miss",
			slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, nil
	}

	s.statsCache.Set(storageKey, stats)
	return stats.Clone(), nil
}

// UpsertProgressStats persists the local stats copy.
func (s *Store) UpsertProgressStats(ctx context.Context, stats *UserProgressStats) error {
	storageKey := statsStorageKey(stats.UserID)
	s.statsCache.Set(storageKey, stats.Clone())

	data, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "failed to marshal progress stats")
	}
	if err := s.driver.SetValue(ctx, storageKey, data); err != nil {
		return errors.Wrapf(err, "failed to persist progress stats for %s", stats.UserID)
	}
	return nil
}
