package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"

	"wb-order-monitor/internal/models"
	"wb-order-monitor/internal/store"
	"wb-order-monitor/internal/wb"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// validationLimit keeps the key-check fetch small; seeding only needs the
// current first page of ids anyway.
const validationLimit = 1000

// OrderFetcher validates API keys and serves the stats report.
type OrderFetcher interface {
	Orders(ctx context.Context, apiKey string, limit, next int) ([]models.Order, int, error)
}

type Handler struct {
	Bot      *Bot
	store    store.Store
	fetcher  OrderFetcher
	sessions *Sessions
	logger   *zap.Logger
}

func NewHandler(bot *Bot, st store.Store, fetcher OrderFetcher, logger *zap.Logger) *Handler {
	return &Handler{
		Bot:      bot,
		store:    st,
		fetcher:  fetcher,
		sessions: NewSessions(),
		logger:   logger,
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		err = h.handleCommand(update.Message)
	case update.Message != nil:
		err = h.handleText(ctx, update.Message)
	}

	if err != nil {
		h.logger.Warn("update handling failed", zap.Error(err))
	}
	return err
}

func (h *Handler) handleCommand(message *tgbotapi.Message) error {
	switch message.Command() {
	case "start":
		return h.handleStart(message.Chat.ID)
	case "cancel":
		h.sessions.Clear(message.Chat.ID)
		return h.Bot.SendText(message.Chat.ID, "❌ Cancelled\nUse /start")
	default:
		return h.Bot.SendText(message.Chat.ID, "Unknown command. Use /start")
	}
}

func (h *Handler) handleStart(chatID int64) error {
	user, err := h.store.GetOrCreate(chatID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	keyStatus := "❌ Not set"
	if user.APIKey != "" {
		keyStatus = "✅ Set"
	}
	monitorStatus := "🔴 Stopped"
	if user.Monitoring {
		monitorStatus = "🟢 Active"
	}

	text := fmt.Sprintf(
		"🤖 <b>Wildberries order monitor</b>\n\n"+
			"API key: %s\nMonitoring: %s\n\n"+
			"📍 New orders are checked every 10 minutes\n"+
			"🔔 You get a notification for each new order",
		keyStatus, monitorStatus,
	)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = menuKeyboard()
	_, err = h.Bot.API.Send(msg)
	return err
}

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Set API key", "setup_api"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Start monitoring", "start_monitor"),
			tgbotapi.NewInlineKeyboardButtonData("⏸ Stop monitoring", "stop_monitor"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Stats", "stats"),
		),
	)
}

func (h *Handler) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if _, err := h.Bot.API.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		h.logger.Debug("callback ack failed", zap.Error(err))
	}

	// Callbacks on messages too old for Telegram to resolve carry no chat.
	if query.Message == nil {
		return nil
	}

	chatID := query.Message.Chat.ID
	if _, err := h.store.GetOrCreate(chatID); err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	switch query.Data {
	case "setup_api":
		h.sessions.Set(chatID, stateAwaitingKey)
		return h.Bot.SendText(chatID,
			"🔑 <b>API key setup</b>\n\n"+
				"Send your Wildberries seller API key as a message.\n\n"+
				"Where to find it:\n"+
				"1. WB seller account\n"+
				"2. Settings → API access\n"+
				"3. Create a new token\n\n"+
				"Send /cancel to abort")
	case "start_monitor":
		return h.startMonitoring(chatID)
	case "stop_monitor":
		if err := h.store.SetMonitoring(chatID, false); err != nil {
			return fmt.Errorf("stop monitoring: %w", err)
		}
		return h.Bot.SendText(chatID, "⏸ <b>Monitoring stopped</b>\n\nUse /start to run it again")
	case "stats":
		return h.sendStats(ctx, chatID)
	default:
		return nil
	}
}

func (h *Handler) startMonitoring(chatID int64) error {
	user, ok := h.store.GetUser(chatID)
	if !ok || user.APIKey == "" {
		return h.Bot.SendText(chatID, "⚠️ Set an API key first!\nPress /start")
	}

	if err := h.store.SetMonitoring(chatID, true); err != nil {
		return fmt.Errorf("start monitoring: %w", err)
	}
	return h.Bot.SendText(chatID,
		"✅ <b>Monitoring started!</b>\n\n"+
			"🔄 Orders are checked every 10 minutes\n"+
			"🔔 You will be notified about every new order")
}

// handleText consumes plain messages; the only expected one is the API key
// while the chat is in the setup conversation.
func (h *Handler) handleText(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	if h.sessions.Get(chatID) != stateAwaitingKey {
		return nil
	}

	apiKey := strings.TrimSpace(message.Text)
	if err := h.Bot.SendText(chatID, "⏳ Checking the API key..."); err != nil {
		h.logger.Debug("progress message failed", zap.Error(err))
	}

	orders, _, err := h.fetcher.Orders(ctx, apiKey, validationLimit, 0)
	if err != nil {
		if errors.Is(err, wb.ErrUnauthorized) {
			return h.Bot.SendText(chatID, "❌ Invalid API key or no access\n\nTry again or /cancel")
		}
		return h.Bot.SendText(chatID, "❌ Could not reach Wildberries, try again later or /cancel")
	}

	// Seed the known set with everything visible now, so orders that existed
	// before setup are never notified retroactively.
	if err := h.store.SetAPIKey(chatID, apiKey, CollectSeed(orders)); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	h.sessions.Clear(chatID)

	return h.Bot.SendText(chatID, fmt.Sprintf(
		"✅ <b>API key saved!</b>\n\n📦 Orders found: %d\n\nNow start monitoring via /start",
		len(orders),
	))
}

// CollectSeed builds the initial known-order set from a validation fetch.
func CollectSeed(orders []models.Order) models.OrderIDSet {
	seed := models.NewOrderIDSet()
	for _, o := range orders {
		seed.Add(o.ID)
	}
	return seed
}

func (h *Handler) sendStats(ctx context.Context, chatID int64) error {
	user, ok := h.store.GetUser(chatID)
	if !ok || user.APIKey == "" {
		return h.Bot.SendText(chatID, "⚠️ Set an API key first!")
	}

	if err := h.Bot.SendText(chatID, "⏳ Loading stats..."); err != nil {
		h.logger.Debug("progress message failed", zap.Error(err))
	}

	orders, _, err := h.fetcher.Orders(ctx, user.APIKey, validationLimit, 0)
	if err != nil {
		return h.Bot.SendText(chatID, "❌ Failed to fetch order data")
	}
	if len(orders) == 0 {
		return h.Bot.SendText(chatID, "📭 No orders")
	}

	return h.Bot.SendText(chatID, BuildStats(orders))
}

// BuildStats renders the stats report: totals plus the top articles by count.
func BuildStats(orders []models.Order) string {
	var totalMinor int64
	counts := make(map[string]int)
	for _, o := range orders {
		totalMinor += o.ConvertedPrice
		article := o.Article
		if article == "" {
			article = "N/A"
		}
		counts[article]++
	}
	total := float64(totalMinor) / 100
	avg := total / float64(len(orders))

	type articleCount struct {
		article string
		count   int
	}
	top := make([]articleCount, 0, len(counts))
	for article, count := range counts {
		top = append(top, articleCount{article, count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].count != top[j].count {
			return top[i].count > top[j].count
		}
		return top[i].article < top[j].article
	})
	if len(top) > 5 {
		top = top[:5]
	}

	var b strings.Builder
	b.WriteString("📊 <b>Order stats</b>\n\n")
	fmt.Fprintf(&b, "📦 Total orders: <b>%d</b>\n", len(orders))
	fmt.Fprintf(&b, "💰 Total amount: <b>%.2f ₽</b>\n", total)
	fmt.Fprintf(&b, "📈 Average order: <b>%.2f ₽</b>\n\n", avg)
	b.WriteString("🏆 <b>Top articles:</b>\n")
	for i, entry := range top {
		fmt.Fprintf(&b, "%d. %s: %d pcs\n", i+1, html.EscapeString(entry.article), entry.count)
	}
	return b.String()
}
