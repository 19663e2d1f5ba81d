package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/core/domain"
)

// MockLinkRepository is a mock implementation of ports.LinkRepository
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, spec *domain.DeepLinkSpec) error {
	args := m.Called(ctx, spec)
	return args.Error(0)
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id string) (*domain.DeepLinkSpec, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeepLinkSpec), args.Error(1)
}

func (m *MockLinkRepository) Dump(ctx context.Context) ([]domain.DeepLinkSpec, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.DeepLinkSpec), args.Error(1)
}

func (m *MockLinkRepository) RecordEvent(ctx context.Context, event *domain.AnalyticsEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockLinkRepository) GetAnalytics(ctx context.Context, linkID string, recent int) (*domain.LinkAnalytics, error) {
	args := m.Called(ctx, linkID, recent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkAnalytics), args.Error(1)
}

// captureSink collects submitted events
type captureSink struct {
	mu     sync.Mutex
	events []*domain.AnalyticsEvent
	err    error
}

func (s *captureSink) Submit(event *domain.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Events() []*domain.AnalyticsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.AnalyticsEvent(nil), s.events...)
}
