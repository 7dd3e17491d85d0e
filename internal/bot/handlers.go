package bot

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/telebot.v4"

	"github.com/fixo-intel/competitor-watch/internal/report"
)

// Telegram rejects messages above 4096 characters; leave headroom.
const maxMessageLen = 4000

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", ctx.Sender().Username)

	greeting := "Competitor Watch bot.\n" +
		"/subscribe - receive scan reports\n" +
		"/unsubscribe - stop receiving reports\n" +
		"/status - current state of monitored entities\n" +
		"/scan - run a scan now"

	if err := ctx.Send(greeting); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

// subscribeHandler process command /subscribe.
func (b *Bot) subscribeHandler(ctx telebot.Context) error {
	chatID := ctx.Chat().ID
	if err := b.subs.SubscribeChat(context.Background(), chatID); err != nil {
		b.log.Error("Failed to subscribe chat", "chat", chatID, "error", err)
		return fmt.Errorf("failed to subscribe chat: %w", err)
	}

	b.log.Info("Chat subscribed to reports", "chat", chatID)

	if err := ctx.Send("Subscribed. You will receive a report after every scan."); err != nil {
		return fmt.Errorf("failed to send subscribe confirmation: %w", err)
	}

	return nil
}

// unsubscribeHandler process command /unsubscribe.
func (b *Bot) unsubscribeHandler(ctx telebot.Context) error {
	chatID := ctx.Chat().ID
	if err := b.subs.UnsubscribeChat(context.Background(), chatID); err != nil {
		b.log.Error("Failed to unsubscribe chat", "chat", chatID, "error", err)
		return fmt.Errorf("failed to unsubscribe chat: %w", err)
	}

	b.log.Info("Chat unsubscribed from reports", "chat", chatID)

	if err := ctx.Send("Unsubscribed."); err != nil {
		return fmt.Errorf("failed to send unsubscribe confirmation: %w", err)
	}

	return nil
}

// statusHandler process command /status.
func (b *Bot) statusHandler(ctx telebot.Context) error {
	statuses, err := b.scanner.AllStatus(context.Background())
	if err != nil {
		b.log.Error("Failed to load statuses", "error", err)
		return fmt.Errorf("failed to load statuses: %w", err)
	}

	var sb strings.Builder
	for entityID, status := range statuses {
		if status == nil {
			fmt.Fprintf(&sb, "%s: never scanned\n", entityID)
			continue
		}
		fmt.Fprintf(&sb, "%s: %d services, %d locations, %d prices, %d promotions (last scan %s)\n",
			entityID,
			status.ServicesCount, status.LocationsCount, status.PricingCount, status.PromotionsCount,
			status.LastScan.Format("2006-01-02 15:04"),
		)
	}
	if sb.Len() == 0 {
		sb.WriteString("No entities configured.")
	}

	if err := ctx.Send(sb.String()); err != nil {
		return fmt.Errorf("failed to send status message: %w", err)
	}

	return nil
}

// scanHandler process command /scan: runs a full scan and replies with the
// terminal-format report.
func (b *Bot) scanHandler(ctx telebot.Context) error {
	b.log.Info("Scan requested over Telegram", "username", ctx.Sender().Username)

	if err := ctx.Send("Scan started..."); err != nil {
		return fmt.Errorf("failed to send scan ack: %w", err)
	}

	_, rendered, err := b.scanner.RunScan(context.Background(), nil, report.FormatTerminal)
	if err != nil {
		b.log.Error("Scan over Telegram failed", "error", err)
		return fmt.Errorf("scan failed: %w", err)
	}

	for _, chunk := range splitMessage(rendered) {
		if err := ctx.Send(chunk); err != nil {
			return fmt.Errorf("failed to send scan report: %w", err)
		}
	}

	return nil
}

// Broadcast sends the rendered report to every subscribed chat. Implements
// the coordinator's Notifier.
func (b *Bot) Broadcast(ctx context.Context, text string) error {
	chatIDs, err := b.subs.GetSubscribedChats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load subscribed chats: %w", err)
	}

	chunks := splitMessage(text)
	for _, chatID := range chatIDs {
		for _, chunk := range chunks {
			if _, err := b.bot.Send(telebot.ChatID(chatID), chunk); err != nil {
				b.log.Warn("Failed to deliver report to chat", "chat", chatID, "error", err)
				break
			}
		}
	}

	return nil
}

// splitMessage cuts text into Telegram-sized chunks on line boundaries.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if current.Len()+len(line)+1 > maxMessageLen && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
