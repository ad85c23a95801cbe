package queue

import (
	"context"
	"testing"
	"time"

	"event-lifecycle/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification() *model.Notification {
	return &model.Notification{
		ID:             uuid.New(),
		Kind:           model.NotificationRegistrationConfirmed,
		RegistrationID: uuid.New(),
		ParticipantID:  7,
		EventID:        1,
		EventName:      "free meetup",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestMemoryNotificationQueue_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryNotificationQueue(10)
	n := testNotification()

	require.NoError(t, q.Publish(ctx, n))

	msgs, err := q.Subscribe(ctx)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, n.ID, msg.Data.ID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestMemoryNotificationQueue_NackRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryNotificationQueue(10)
	n := testNotification()

	require.NoError(t, q.Publish(ctx, n))

	msgs, err := q.Subscribe(ctx)
	require.NoError(t, err)

	msg := <-msgs
	msg.Nack(true)

	// 重回隊列後可再次取得
	select {
	case redelivered := <-msgs:
		assert.Equal(t, n.ID, redelivered.Data.ID)
		redelivered.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for redelivery")
	}
}

func TestMemoryNotificationQueue_PublishRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// buffer 滿的時候 Publish 應該跟著 context 結束
	q := NewMemoryNotificationQueue(1)
	require.NoError(t, q.Publish(ctx, testNotification()))

	cancel()
	err := q.Publish(ctx, testNotification())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryNotificationQueue_SubscribeClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	q := NewMemoryNotificationQueue(1)
	msgs, err := q.Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
