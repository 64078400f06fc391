// Package notify pushes kitchen notifications for new and updated orders to a
// Telegram chat. Sending happens on a single background worker; when the
// queue is full messages are dropped.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"canteen-api/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const defaultQueueSize = 64

// sender is the part of *tgbotapi.BotAPI the notifier needs
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot    sender
	chatID int64
	logger *zap.Logger

	queue     chan tgbotapi.MessageConfig
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewTelegram connects to the Bot API and starts the send worker
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("telegram notifier ready", zap.String("bot", api.Self.UserName), zap.Int64("chat_id", chatID))
	return newTelegram(api, chatID, defaultQueueSize, logger), nil
}

func newTelegram(bot sender, chatID int64, queueSize int, logger *zap.Logger) *Telegram {
	if queueSize <= 0 {
		queueSize = 1
	}
	t := &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: logger,
		queue:  make(chan tgbotapi.MessageConfig, queueSize),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Telegram) run() {
	defer close(t.done)
	for msg := range t.queue {
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Warn("telegram send failed", zap.Error(err))
		}
	}
}

func (t *Telegram) OrderPlaced(_ context.Context, order *models.Order) {
	t.enqueue(FormatOrderPlaced(order))
}

func (t *Telegram) OrderStatusChanged(_ context.Context, order *models.Order, from models.OrderStatus) {
	t.enqueue(FormatStatusChanged(order, from))
}

func (t *Telegram) enqueue(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- msg:
	default:
		t.logger.Warn("telegram queue full, dropping notification")
	}
}

// Close stops accepting messages and waits for the queued ones to be sent
func (t *Telegram) Close() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		close(t.queue)
		t.mu.Unlock()
	})
	<-t.done
}

// FormatOrderPlaced renders the kitchen message for a new order
func FormatOrderPlaced(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 *New order #%d*\n", order.ID)
	fmt.Fprintf(&b, "Customer: %s\n", escape(order.CustomerName))
	fmt.Fprintf(&b, "Deliver to: %s\n", escape(order.DeliveryLocation))
	for _, line := range groupItems(order.Items) {
		fmt.Fprintf(&b, "• %s\n", line)
	}
	fmt.Fprintf(&b, "Total: %d", order.Total)
	return b.String()
}

// FormatStatusChanged renders the message for a status transition
func FormatStatusChanged(order *models.Order, from models.OrderStatus) string {
	return fmt.Sprintf("📦 Order #%d: %s → *%s*", order.ID, from, order.Status)
}

// groupItems collapses repeated units into "2 x Coffee", keeping first-seen order
func groupItems(items []models.OrderItem) []string {
	counts := map[string]int{}
	var order []string
	for _, it := range items {
		if counts[it.Name] == 0 {
			order = append(order, it.Name)
		}
		counts[it.Name]++
	}
	lines := make([]string, len(order))
	for i, name := range order {
		lines[i] = fmt.Sprintf("%d x %s", counts[name], escape(name))
	}
	return lines
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
