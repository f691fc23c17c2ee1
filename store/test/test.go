// Package test provides an in-memory store driver for unit tests.
package test

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/mazvydas/kasdien/internal/profile"
	"github.com/mazvydas/kasdien/store"
)

// Driver is an in-memory store.Driver. Optional fail hooks let tests exercise
// the degraded paths (reads treated as misses, persistence failures).
type Driver struct {
	mu     sync.Mutex
	values map[string][]byte

	// FailGet, when set, is returned by every GetValue call.
	FailGet error
	// FailSet, when set, is returned by every SetValue call.
	FailSet error
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{values: make(map[string][]byte)}
}

func (d *Driver) GetDB() *sql.DB {
	return nil
}

func (d *Driver) Close() error {
	return nil
}

func (d *Driver) GetValue(_ context.Context, key string) ([]byte, bool, error) {
	if d.FailGet != nil {
		return nil, false, d.FailGet
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	value, ok := d.values[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (d *Driver) SetValue(_ context.Context, key string, value []byte) error {
	if d.FailSet != nil {
		return d.FailSet
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	d.values[key] = cp
	return nil
}

func (d *Driver) DeleteValue(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.values, key)
	return nil
}

func (d *Driver) ListKeys(_ context.Context, prefix string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var keys []string
	for key := range d.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// NewTestingStore creates a Store over a fresh in-memory driver.
func NewTestingStore() (*store.Store, *Driver) {
	driver := NewDriver()
	return store.New(driver, &profile.Profile{Mode: "dev"}), driver
}
