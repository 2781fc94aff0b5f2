// Package file persists user state as a single JSON snapshot on disk.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"wb-order-monitor/internal/models"

	"go.uber.org/zap"
)

// Store holds the whole user map in memory and rewrites the snapshot file on
// every mutation. Chat ids are serialized as string keys, matching the legacy
// data-file schema.
type Store struct {
	mu     sync.RWMutex
	users  map[int64]models.User
	path   string
	logger *zap.Logger
}

// New loads the snapshot at path. A missing or unreadable file degrades to an
// empty state with a warning; startup never fails on bad data.
func New(path string, logger *zap.Logger) *Store {
	s := &Store{
		users:  make(map[int64]models.User),
		path:   path,
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read state file, starting empty", zap.String("path", path), zap.Error(err))
		}
		return s
	}

	var snapshot map[string]models.User
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logger.Warn("malformed state file, starting empty", zap.String("path", path), zap.Error(err))
		return s
	}

	for key, user := range snapshot {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			logger.Warn("skipping state entry with bad chat id", zap.String("key", key))
			continue
		}
		if user.KnownOrders == nil {
			user.KnownOrders = models.NewOrderIDSet()
		}
		s.users[chatID] = user
	}
	logger.Info("loaded user state", zap.Int("users", len(s.users)), zap.String("path", path))
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) GetUser(chatID int64) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[chatID]
	if !ok {
		return models.User{}, false
	}
	return user.Clone(), true
}

func (s *Store) GetOrCreate(chatID int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[chatID]; ok {
		return user.Clone(), nil
	}

	user := models.User{KnownOrders: models.NewOrderIDSet()}
	s.users[chatID] = user
	if err := s.save(); err != nil {
		s.logger.Error("failed to persist new user", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return user.Clone(), nil
}

func (s *Store) SetAPIKey(chatID int64, apiKey string, seed models.OrderIDSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.users[chatID]
	user.APIKey = apiKey
	user.KnownOrders = seed.Clone()
	s.users[chatID] = user
	return s.save()
}

func (s *Store) SetMonitoring(chatID int64, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[chatID]
	if !ok {
		user = models.User{KnownOrders: models.NewOrderIDSet()}
	}
	user.Monitoring = on
	s.users[chatID] = user
	return s.save()
}

func (s *Store) ReplaceKnownOrders(chatID int64, ids models.OrderIDSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[chatID]
	if !ok {
		return fmt.Errorf("unknown chat %d", chatID)
	}
	user.KnownOrders = ids.Clone()
	s.users[chatID] = user
	return s.save()
}

func (s *Store) MonitoredUsers() (map[int64]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	monitored := make(map[int64]models.User)
	for chatID, user := range s.users {
		if user.Monitoring && user.APIKey != "" {
			monitored[chatID] = user.Clone()
		}
	}
	return monitored, nil
}

// save rewrites the snapshot via a temp file and rename so a crash mid-write
// leaves the previous snapshot intact. Callers hold the write lock.
func (s *Store) save() error {
	snapshot := make(map[string]models.User, len(s.users))
	for chatID, user := range s.users {
		snapshot[strconv.FormatInt(chatID, 10)] = user
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
