package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"pkgbot/pkg/logger"
)

const defaultMaxEntries = 512

type entry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MemoryStore is an in-process cache bounded by entry count.
type MemoryStore struct {
	log        *logger.Logger
	maxEntries int
	filePath   string
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// MemoryStoreConfig configures the memory store.
type MemoryStoreConfig struct {
	MaxEntries int    // Entry limit (default: 512)
	FilePath   string // Snapshot path; empty disables persistence
}

// NewMemoryStore creates a memory store, restoring the snapshot if one exists.
func NewMemoryStore(log *logger.Logger, cfg *MemoryStoreConfig) (*MemoryStore, error) {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	s := &MemoryStore{
		log:        log,
		maxEntries: maxEntries,
		filePath:   cfg.FilePath,
		now:        time.Now,
		entries:    make(map[string]entry),
	}

	if s.filePath != "" {
		if err := s.load(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading cache snapshot: %w", err)
		}
	}

	return s, nil
}

// Get returns a live entry. Expired entries are removed on access.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.ExpiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.Value, true, nil
}

// Set stores value, evicting the entry closest to expiry when full.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evict(now)
	}
	s.entries[key] = entry{Value: value, ExpiresAt: now.Add(ttl)}
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close writes the snapshot when persistence is enabled.
func (s *MemoryStore) Close() error {
	if s.filePath == "" {
		return nil
	}
	return s.save()
}

// evict drops expired entries, or the one expiring first if none are. Caller holds mu.
func (s *MemoryStore) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range s.entries {
		if !now.Before(e.ExpiresAt) {
			delete(s.entries, k)
			continue
		}
		if oldestKey == "" || e.ExpiresAt.Before(oldest) {
			oldestKey, oldest = k, e.ExpiresAt
		}
	}
	if len(s.entries) >= s.maxEntries && oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

func (s *MemoryStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var entries map[string]entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("unmarshaling cache snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range entries {
		if now.Before(e.ExpiresAt) && len(s.entries) < s.maxEntries {
			s.entries[k] = e
		}
	}

	s.log.Info("Loaded cache snapshot", zap.String("file", s.filePath), zap.Int("entries", len(s.entries)))
	return nil
}

func (s *MemoryStore) save() error {
	s.mu.Lock()
	now := s.now()
	live := make(map[string]entry, len(s.entries))
	for k, e := range s.entries {
		if now.Before(e.ExpiresAt) {
			live[k] = e
		}
	}
	s.mu.Unlock()

	data, err := json.Marshal(live)
	if err != nil {
		return fmt.Errorf("marshaling cache snapshot: %w", err)
	}
	if err := writeFileAtomic(s.filePath, data, 0o600); err != nil {
		return fmt.Errorf("writing cache snapshot: %w", err)
	}

	s.log.Debug("Saved cache snapshot", zap.String("file", s.filePath), zap.Int("entries", len(live)))
	return nil
}

// writeFileAtomic replaces path via a synced temp file in the same directory,
// so a crash leaves either the old snapshot or the new one.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	renamed = true

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
