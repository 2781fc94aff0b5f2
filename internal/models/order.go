package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Order is a single marketplace order as returned by the Wildberries API.
// Orders are transient: only their ids survive a poll cycle.
type Order struct {
	ID             int64     `json:"id"`
	Article        string    `json:"article"`
	ConvertedPrice int64     `json:"convertedPrice"`
	CreatedAt      time.Time `json:"createdAt"`
	Offices        []string  `json:"offices"`
	SupplyID       string    `json:"supplyId,omitempty"`
	Comment        string    `json:"comment,omitempty"`
}

// OrderIDSet is the set of order ids already accounted for.
// It serializes as a sorted id array so snapshots are stable and diffable.
type OrderIDSet map[int64]struct{}

func NewOrderIDSet(ids ...int64) OrderIDSet {
	s := make(OrderIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s OrderIDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s OrderIDSet) Add(id int64) {
	s[id] = struct{}{}
}

func (s OrderIDSet) Clone() OrderIDSet {
	c := make(OrderIDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

func (s OrderIDSet) Slice() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s OrderIDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *OrderIDSet) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewOrderIDSet(ids...)
	return nil
}
