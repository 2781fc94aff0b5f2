// Package sqlite is the SQL-backed user state store, for deployments with a
// mounted volume where a single JSON snapshot is not enough.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	"wb-order-monitor/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := initDatabase(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return &Store{db: db}, nil
}

func initDatabase(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			chat_id INTEGER PRIMARY KEY,
			api_key TEXT NOT NULL DEFAULT '',
			monitoring INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS known_orders (
			chat_id INTEGER NOT NULL,
			order_id INTEGER NOT NULL,
			PRIMARY KEY (chat_id, order_id),
			FOREIGN KEY (chat_id) REFERENCES users(chat_id)
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("execute %q: %w", query, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetUser(chatID int64) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.loadUser(chatID)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func (s *Store) GetOrCreate(chatID int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, err := s.loadUser(chatID); err == nil {
		return user, nil
	}

	if _, err := s.db.Exec(
		"INSERT INTO users (chat_id) VALUES (?) ON CONFLICT DO NOTHING", chatID,
	); err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return models.User{KnownOrders: models.NewOrderIDSet()}, nil
}

func (s *Store) SetAPIKey(chatID int64, apiKey string, seed models.OrderIDSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO users (chat_id, api_key) VALUES (?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET api_key = excluded.api_key`,
		chatID, apiKey,
	); err != nil {
		return fmt.Errorf("upsert api key: %w", err)
	}

	if err := replaceKnownOrdersTx(tx, chatID, seed); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) SetMonitoring(chatID int64, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT INTO users (chat_id, monitoring) VALUES (?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET monitoring = excluded.monitoring`,
		chatID, on,
	); err != nil {
		return fmt.Errorf("update monitoring: %w", err)
	}
	return nil
}

func (s *Store) ReplaceKnownOrders(chatID int64, ids models.OrderIDSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceKnownOrdersTx(tx, chatID, ids); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceKnownOrdersTx(tx *sql.Tx, chatID int64, ids models.OrderIDSet) error {
	if _, err := tx.Exec("DELETE FROM known_orders WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("clear known orders: %w", err)
	}
	for _, id := range ids.Slice() {
		if _, err := tx.Exec(
			"INSERT INTO known_orders (chat_id, order_id) VALUES (?, ?)", chatID, id,
		); err != nil {
			return fmt.Errorf("insert known order: %w", err)
		}
	}
	return nil
}

func (s *Store) MonitoredUsers() (map[int64]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT chat_id, api_key, monitoring FROM users WHERE monitoring = 1 AND api_key != ''",
	)
	if err != nil {
		return nil, fmt.Errorf("query monitored users: %w", err)
	}
	defer rows.Close()

	monitored := make(map[int64]models.User)
	for rows.Next() {
		var chatID int64
		var user models.User
		if err := rows.Scan(&chatID, &user.APIKey, &user.Monitoring); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		monitored[chatID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for chatID, user := range monitored {
		known, err := s.knownOrders(chatID)
		if err != nil {
			return nil, err
		}
		user.KnownOrders = known
		monitored[chatID] = user
	}
	return monitored, nil
}

func (s *Store) loadUser(chatID int64) (models.User, error) {
	var user models.User
	err := s.db.QueryRow(
		"SELECT api_key, monitoring FROM users WHERE chat_id = ?", chatID,
	).Scan(&user.APIKey, &user.Monitoring)
	if err != nil {
		return models.User{}, fmt.Errorf("load user %d: %w", chatID, err)
	}

	known, err := s.knownOrders(chatID)
	if err != nil {
		return models.User{}, err
	}
	user.KnownOrders = known
	return user, nil
}

func (s *Store) knownOrders(chatID int64) (models.OrderIDSet, error) {
	rows, err := s.db.Query("SELECT order_id FROM known_orders WHERE chat_id = ?", chatID)
	if err != nil {
		return nil, fmt.Errorf("query known orders: %w", err)
	}
	defer rows.Close()

	known := models.NewOrderIDSet()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		known.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate known orders: %w", err)
	}
	return known, nil
}
