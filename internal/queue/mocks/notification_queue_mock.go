package mocks

import (
	"context"

	"event-lifecycle/internal/model"
	"event-lifecycle/internal/queue"

	"github.com/stretchr/testify/mock"
)

type MockNotificationQueue struct {
	mock.Mock
}

func NewMockNotificationQueue() *MockNotificationQueue {
	return &MockNotificationQueue{}
}

func (m *MockNotificationQueue) Publish(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationQueue) Subscribe(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}
