package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderIDSetJSONRoundTrip(t *testing.T) {
	set := NewOrderIDSet(42, 7, 13)

	data, err := json.Marshal(set)
	require.NoError(t, err)
	// Sorted on the wire so snapshots are stable.
	assert.JSONEq(t, `[7, 13, 42]`, string(data))

	var back OrderIDSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, set, back)
}

func TestOrderIDSetOperations(t *testing.T) {
	set := NewOrderIDSet(1)
	assert.True(t, set.Contains(1))
	assert.False(t, set.Contains(2))

	set.Add(2)
	assert.True(t, set.Contains(2))

	clone := set.Clone()
	clone.Add(3)
	assert.False(t, set.Contains(3))
	assert.Equal(t, []int64{1, 2}, set.Slice())
}

func TestUserCloneIsDeep(t *testing.T) {
	user := User{APIKey: "k", KnownOrders: NewOrderIDSet(1)}
	clone := user.Clone()
	clone.KnownOrders.Add(2)
	assert.False(t, user.KnownOrders.Contains(2))
}

func TestOrderDecodesRemotePayload(t *testing.T) {
	payload := `{
		"id": 101,
		"article": "SKU-1",
		"convertedPrice": 159900,
		"createdAt": "2024-03-01T10:30:00Z",
		"offices": ["Koledino", "Tula"],
		"supplyId": "WB-GI-1"
	}`

	var order Order
	require.NoError(t, json.Unmarshal([]byte(payload), &order))
	assert.Equal(t, int64(101), order.ID)
	assert.Equal(t, int64(159900), order.ConvertedPrice)
	assert.Equal(t, []string{"Koledino", "Tula"}, order.Offices)
	assert.Empty(t, order.Comment)
}
