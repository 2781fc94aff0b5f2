// Package monitor runs the periodic poll-diff-notify cycle for every user
// that has monitoring enabled.
package monitor

import (
	"context"
	"errors"
	"time"

	"wb-order-monitor/internal/models"
	"wb-order-monitor/internal/wb"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultInterval is how often every monitored user is polled.
	DefaultInterval = 10 * time.Minute
	// DefaultWarmup delays the first cycle so startup settles first.
	DefaultWarmup = 10 * time.Second

	fetchLimit   = 1000
	messageDelay = 500 * time.Millisecond
)

// OrderFetcher fetches one page of orders for an API key.
type OrderFetcher interface {
	Orders(ctx context.Context, apiKey string, limit, next int) ([]models.Order, int, error)
}

// UserStore is the slice of the state store the poll loop needs.
type UserStore interface {
	MonitoredUsers() (map[int64]models.User, error)
	ReplaceKnownOrders(chatID int64, ids models.OrderIDSet) error
}

// Notifier delivers one rendered order notification to a chat.
type Notifier interface {
	SendOrder(chatID int64, order models.Order) error
}

// Monitor drives the poll cycle. One goroutine owns the loop, so cycle starts
// are serialized: a cycle that outlives the interval simply delays the next
// tick instead of overlapping it.
type Monitor struct {
	fetcher  OrderFetcher
	store    UserStore
	notifier Notifier
	logger   *zap.Logger

	interval time.Duration
	warmup   time.Duration
	limiter  *rate.Limiter

	mCycles  prometheus.Counter
	mFetched prometheus.Counter
	mSent    prometheus.Counter
	mErrors  prometheus.Counter
}

func New(fetcher OrderFetcher, store UserStore, notifier Notifier, logger *zap.Logger, interval time.Duration, reg prometheus.Registerer) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	factory := promauto.With(reg)
	return &Monitor{
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		warmup:   DefaultWarmup,
		limiter:  rate.NewLimiter(rate.Every(messageDelay), 1),
		mCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_cycles_total", Help: "Poll cycles started",
		}),
		mFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_orders_fetched_total", Help: "Orders fetched from the marketplace API",
		}),
		mSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_notifications_sent_total", Help: "Order notifications delivered",
		}),
		mErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_errors_total", Help: "Failed fetches, sends and saves",
		}),
	}
}

// Run blocks until ctx is cancelled, polling on a fixed interval after a short
// warm-up.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("order monitor started",
		zap.Duration("interval", m.interval),
		zap.Duration("warmup", m.warmup),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.warmup):
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.CheckAll(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("order monitor shutting down")
			return ctx.Err()
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll runs one cycle for every monitored user. A failure in one user's
// cycle never aborts the others.
func (m *Monitor) CheckAll(ctx context.Context) {
	m.mCycles.Inc()

	users, err := m.store.MonitoredUsers()
	if err != nil {
		m.mErrors.Inc()
		m.logger.Error("failed to list monitored users", zap.Error(err))
		return
	}
	m.logger.Debug("checking orders", zap.Int("users", len(users)))

	for chatID, user := range users {
		select {
		case <-ctx.Done():
			m.logger.Info("cycle interrupted", zap.Error(ctx.Err()))
			return
		default:
		}

		if err := m.checkUser(ctx, chatID, user); err != nil {
			m.mErrors.Inc()
			m.logger.Warn("order check failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

func (m *Monitor) checkUser(ctx context.Context, chatID int64, user models.User) error {
	orders, _, err := m.fetcher.Orders(ctx, user.APIKey, fetchLimit, 0)
	if err != nil {
		// Auth and transport errors alike leave the known set untouched;
		// the next tick is the retry.
		if errors.Is(err, wb.ErrUnauthorized) {
			m.logger.Warn("API key rejected, skipping user", zap.Int64("chat_id", chatID))
			return nil
		}
		return err
	}
	m.mFetched.Add(float64(len(orders)))

	fresh := NewOrders(orders, user.KnownOrders)
	if len(fresh) > 0 {
		m.logger.Info("new orders detected",
			zap.Int64("chat_id", chatID),
			zap.Int("count", len(fresh)),
		)
	}

	for _, order := range fresh {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := m.notifier.SendOrder(chatID, order); err != nil {
			// Keep delivering the rest; the state update below still marks
			// this order as seen, matching at-most-once delivery.
			m.mErrors.Inc()
			m.logger.Warn("failed to send notification",
				zap.Int64("chat_id", chatID),
				zap.Int64("order_id", order.ID),
				zap.Error(err),
			)
			continue
		}
		m.mSent.Inc()
	}

	// Replace even when nothing is new: a successful empty fetch means every
	// previously known order was archived remotely.
	if err := m.store.ReplaceKnownOrders(chatID, CollectIDs(orders)); err != nil {
		m.mErrors.Inc()
		m.logger.Error("failed to persist known orders", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return nil
}
