package queue

import (
	"context"

	"event-lifecycle/internal/model"
)

type Delivery struct {
	Data *model.Notification
	Ack  func()
	Nack func(requeue bool)
}

// NotificationQueue 狀態轉換 commit 之後的旁路通道；
// 發佈失敗只記 log，不影響已完成的轉換
type NotificationQueue interface {
	// 發送通知到隊列
	Publish(ctx context.Context, n *model.Notification) error
	// 訂閱通知隊列
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

type MemoryNotificationQueueImpl struct {
	// 使用 Go channel 模擬 MQ，供本機與測試使用
	ch chan *model.Notification
}

func NewMemoryNotificationQueue(bufferSize int) NotificationQueue {
	return &MemoryNotificationQueueImpl{
		ch: make(chan *model.Notification, bufferSize),
	}
}

func (q *MemoryNotificationQueueImpl) Publish(ctx context.Context, n *model.Notification) error {
	select {
	case q.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryNotificationQueueImpl) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: n,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- n // 簡單模擬重回隊列
						}
					},
				}
			}
		}
	}()

	return out, nil
}
