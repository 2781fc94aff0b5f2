// Package store defines the durable per-user state contract.
package store

import "wb-order-monitor/internal/models"

// Store keeps per-chat monitoring state. Every mutation is persisted before it
// returns; callers never trigger saves themselves. Implementations must be safe
// for concurrent use by the bot handler and the poll loop, and must hand out
// copies so a caller can never mutate shared state behind the store's back.
type Store interface {
	Close() error

	// GetUser returns a copy of the user's record, if it exists.
	GetUser(chatID int64) (models.User, bool)

	// GetOrCreate returns the user's record, inserting the default
	// (no key, monitoring off, empty known set) on first contact.
	GetOrCreate(chatID int64) (models.User, error)

	// SetAPIKey stores a validated key and seeds the known-order set with the
	// ids visible at validation time, so pre-existing orders are never notified.
	SetAPIKey(chatID int64, apiKey string, seed models.OrderIDSet) error

	SetMonitoring(chatID int64, on bool) error

	// ReplaceKnownOrders overwrites the known set with the full id set from a
	// successful fetch. Ids that vanished remotely drop out of tracking.
	ReplaceKnownOrders(chatID int64, ids models.OrderIDSet) error

	// MonitoredUsers returns copies of all records with monitoring enabled and
	// an API key set, keyed by chat id.
	MonitoredUsers() (map[int64]models.User, error)
}
