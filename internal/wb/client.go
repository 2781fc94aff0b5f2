// Package wb is a minimal client for the Wildberries marketplace seller API.
package wb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wb-order-monitor/internal/models"
)

const (
	defaultBaseURL = "https://marketplace-api.wildberries.ru/api/v3"
	defaultTimeout = 30 * time.Second
)

// ErrUnauthorized is returned when the API rejects the supplied key.
// It is user-actionable and must not be retried with the same key.
var ErrUnauthorized = errors.New("wb: invalid API key")

type Client struct {
	httpClient *http.Client
	baseURL    string
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ordersResponse struct {
	Orders []models.Order `json:"orders"`
	Next   int            `json:"next"`
}

// Orders fetches one page of orders. It returns the page and the cursor for
// the next one. The client never retries; the caller's next cycle is the retry.
func (c *Client) Orders(ctx context.Context, apiKey string, limit, next int) ([]models.Order, int, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("next", strconv.Itoa(next))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/orders?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build orders request: %w", err)
	}
	req.Header.Set("Authorization", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, 0, ErrUnauthorized
	default:
		return nil, 0, fmt.Errorf("fetch orders: unexpected status %d", resp.StatusCode)
	}

	var body ordersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, fmt.Errorf("decode orders response: %w", err)
	}

	orders := body.Orders
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, body.Next, nil
}
