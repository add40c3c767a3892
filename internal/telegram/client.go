// Package telegram pushes price alerts and session lifecycle notices via
// the Telegram Bot API.
package telegram

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/paihanhuang/shopping-agent/internal/models"
)

// Client handles Telegram notifications. It satisfies alerts.Notifier.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// NotifyAlert sends one price-change alert.
func (c *Client) NotifyAlert(a models.PriceAlert) error {
	return c.sendMarkdownV2(formatAlert(a))
}

// NotifySessionEnded sends a session lifecycle notice with the reason the
// tracking loop exited (duration reached, stop requested).
func (c *Client) NotifySessionEnded(sessionID int64, query string, reason string) error {
	text := fmt.Sprintf("✅ *Tracking ended* \\(session %d\\)\n%s\n%s",
		sessionID, escapeMarkdownV2(query), escapeMarkdownV2(reason))
	return c.sendMarkdownV2(text)
}

// formatAlert formats a price alert as a Telegram MarkdownV2 message.
func formatAlert(a models.PriceAlert) string {
	directionEmoji := "📈"
	directionWord := "increased"
	if a.ChangePct < 0 {
		directionEmoji = "📉"
		directionWord = "dropped"
	}

	pctStr := escapeMarkdownV2(fmt.Sprintf("%.1f%%", math.Abs(a.ChangePct)))
	oldStr := escapeMarkdownV2(fmt.Sprintf("$%.2f", a.OldPrice))
	newStr := escapeMarkdownV2(fmt.Sprintf("$%.2f", a.NewPrice))
	dateStr := escapeMarkdownV2(a.CreatedAt.Format("2006-01-02 15:04:05"))

	return fmt.Sprintf("🚨 *Price Alert*\n%s *%s* %s %s\n%s → %s\n📅 %s",
		directionEmoji, escapeMarkdownV2(a.Retailer), directionWord, pctStr,
		oldStr, newStr, dateStr)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
