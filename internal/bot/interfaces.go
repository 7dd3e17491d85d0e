package bot

import (
	"context"

	"gopkg.in/telebot.v4"

	"github.com/fixo-intel/competitor-watch/internal/report"
	"github.com/fixo-intel/competitor-watch/internal/services/agent"
)

// API is the subset of the telebot surface the bot uses.
type API interface {
	// Handle lets you set the handler for some command name or one of the supported endpoints. It also applies middleware if such passed to the function.
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	// Start brings bot into motion by consuming incoming updates (see Bot.Updates channel).
	Start()
	// Stop gracefully shuts the poller down.
	Stop()

	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Scanner is what the bot needs from the scan coordinator.
type Scanner interface {
	RunScan(ctx context.Context, entityIDs []string, format report.Format) (*report.Data, string, error)
	AllStatus(ctx context.Context) (map[string]*agent.Status, error)
}

// Subscriptions is the chat subscription store.
type Subscriptions interface {
	SubscribeChat(ctx context.Context, chatID int64) error
	UnsubscribeChat(ctx context.Context, chatID int64) error
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}
