package wb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersParsesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("next"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"orders": [
				{
					"id": 101,
					"article": "SKU-1",
					"convertedPrice": 159900,
					"createdAt": "2024-03-01T10:30:00Z",
					"offices": ["Koledino"],
					"supplyId": "WB-GI-1",
					"comment": "leave at door"
				},
				{"id": 102, "article": "SKU-2", "convertedPrice": 5000, "createdAt": "2024-03-01T11:00:00Z"}
			],
			"next": 13833711
		}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	orders, next, err := client.Orders(context.Background(), "secret-key", 1000, 0)
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, int64(101), orders[0].ID)
	assert.Equal(t, "SKU-1", orders[0].Article)
	assert.Equal(t, int64(159900), orders[0].ConvertedPrice)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), orders[0].CreatedAt.UTC())
	assert.Equal(t, []string{"Koledino"}, orders[0].Offices)
	assert.Equal(t, "WB-GI-1", orders[0].SupplyID)
	assert.Equal(t, "leave at door", orders[0].Comment)
	assert.Equal(t, int64(102), orders[1].ID)
	assert.Equal(t, 13833711, next)
}

func TestOrdersMissingOrdersFieldMeansEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"next": 0}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	orders, next, err := client.Orders(context.Background(), "key", 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
	assert.Zero(t, next)
}

func TestOrdersUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, _, err := client.Orders(context.Background(), "bad-key", 10, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestOrdersUnexpectedStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, _, err := client.Orders(context.Background(), "key", 10, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "502")
}

func TestOrdersTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
	)
	_, _, err := client.Orders(context.Background(), "key", 10, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestOrdersPassesCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "13833711", r.URL.Query().Get("next"))
		w.Write([]byte(`{"orders": [], "next": 0}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, _, err := client.Orders(context.Background(), "key", 1000, 13833711)
	require.NoError(t, err)
}
