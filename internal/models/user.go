package models

// User is the per-subscriber monitoring state, keyed by Telegram chat id.
// The zero value (no key, monitoring off, empty known set) is the state of a
// user right after their first interaction with the bot.
type User struct {
	APIKey      string     `json:"api_key"`
	Monitoring  bool       `json:"monitoring"`
	KnownOrders OrderIDSet `json:"known_orders"`
}

// Clone returns a deep copy so store callers never share the known-order set.
func (u User) Clone() User {
	c := u
	c.KnownOrders = u.KnownOrders.Clone()
	return c
}
