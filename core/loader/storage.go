// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package loader

import (
	"context"
	"sync"
)

// Storage is the persistence contract implemented by the host application.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the value stored under key. The second result reports
	// whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// BatchStorage is an optional extension for backends that can persist several
// keys as one transactional write. The loader uses it, when available, for
// writes that would otherwise leave a partial-failure window, such as a
// remote snapshot and its timestamp.
type BatchStorage interface {
	Storage

	// SetMulti stores every entry or none of them.
	SetMulti(ctx context.Context, entries map[string]string) error
}

// Persisted key layout. One slot for the universal patch; remote snapshots,
// their timestamps, and language patches are stored per language.
const (
	keyPrefix         = "localize:"
	keyUniversalPatch = keyPrefix + "patch:universal"
)

func remoteContentKey(lang string) string { return keyPrefix + "remote:" + lang }
func remoteStampKey(lang string) string   { return keyPrefix + "remote-ts:" + lang }
func languagePatchKey(lang string) string { return keyPrefix + "patch:" + lang }

// MemoryStorage is an in-process Storage and BatchStorage implementation,
// suitable for tests and for hosts without durable storage.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

// Get implements [Storage].
func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]

	return value, ok, nil
}

// Set implements [Storage].
func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value

	return nil
}

// Remove implements [Storage].
func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

// SetMulti implements [BatchStorage].
func (m *MemoryStorage) SetMulti(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range entries {
		m.data[k] = v
	}

	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}
