// Package mocks provides testify mocks for the project's interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"gopkg.in/telebot.v4"

	"github.com/fixo-intel/competitor-watch/internal/models"
	"github.com/fixo-intel/competitor-watch/internal/report"
	"github.com/fixo-intel/competitor-watch/internal/services/agent"
)

// Scraper is a mock of the scraper.Scraper capability.
type Scraper struct {
	mock.Mock
}

func (m *Scraper) Scrape(ctx context.Context) (*models.Snapshot, error) {
	args := m.Called(ctx)
	if snapshot, ok := args.Get(0).(*models.Snapshot); ok {
		return snapshot, args.Error(1)
	}
	return nil, args.Error(1)
}

// SnapshotRepository is a mock of repository.SnapshotRepository.
type SnapshotRepository struct {
	mock.Mock
}

func (m *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) (int64, error) {
	args := m.Called(ctx, snapshot)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SnapshotRepository) LatestSnapshot(ctx context.Context, entityID string) (*models.Snapshot, error) {
	args := m.Called(ctx, entityID)
	if snapshot, ok := args.Get(0).(*models.Snapshot); ok {
		return snapshot, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SnapshotRepository) PreviousSnapshot(ctx context.Context, entityID string) (*models.Snapshot, error) {
	args := m.Called(ctx, entityID)
	if snapshot, ok := args.Get(0).(*models.Snapshot); ok {
		return snapshot, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SnapshotRepository) AllSnapshots(ctx context.Context, entityID string) ([]*models.Snapshot, error) {
	args := m.Called(ctx, entityID)
	if snapshots, ok := args.Get(0).([]*models.Snapshot); ok {
		return snapshots, args.Error(1)
	}
	return nil, args.Error(1)
}

// Subscriptions is a mock of the bot.Subscriptions store.
type Subscriptions struct {
	mock.Mock
}

func (m *Subscriptions) SubscribeChat(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *Subscriptions) UnsubscribeChat(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *Subscriptions) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// Scanner is a mock of the bot.Scanner interface.
type Scanner struct {
	mock.Mock
}

func (m *Scanner) RunScan(ctx context.Context, entityIDs []string, format report.Format) (*report.Data, string, error) {
	args := m.Called(ctx, entityIDs, format)
	if data, ok := args.Get(0).(*report.Data); ok {
		return data, args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

func (m *Scanner) AllStatus(ctx context.Context) (map[string]*agent.Status, error) {
	args := m.Called(ctx)
	if statuses, ok := args.Get(0).(map[string]*agent.Status); ok {
		return statuses, args.Error(1)
	}
	return nil, args.Error(1)
}

// API is a mock of the bot.API telebot surface.
type API struct {
	mock.Mock
}

// NewAPI creates a mock bound to the test's cleanup.
func NewAPI(t *testing.T) *API {
	m := &API{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *API) Handle(endpoint interface{}, h telebot.HandlerFunc, mw ...telebot.MiddlewareFunc) {
	m.Called(endpoint, h)
}

func (m *API) Start() {
	m.Called()
}

func (m *API) Stop() {
	m.Called()
}

func (m *API) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	args := m.Called(to, what)
	if msg, ok := args.Get(0).(*telebot.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}
