package worker

import (
	"context"
	"time"

	"event-lifecycle/internal/notify"
	"event-lifecycle/internal/queue"
	"event-lifecycle/pkg/logger"
	"event-lifecycle/pkg/metrics"

	"go.uber.org/zap"
)

type NotificationWorker interface {
	// 訂閱通知隊列
	Start(ctx context.Context) error
}

type NotificationWorkerImpl struct {
	dispatcher notify.Dispatcher
	queue      queue.NotificationQueue
}

func NewNotificationWorker(dispatcher notify.Dispatcher, queue queue.NotificationQueue) NotificationWorker {
	return &NotificationWorkerImpl{
		dispatcher: dispatcher,
		queue:      queue,
	}
}

func (w *NotificationWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			start := time.Now()
			err := w.dispatcher.Dispatch(ctx, msg.Data)
			metrics.NotificationDispatchLatency.Observe(time.Since(start).Seconds())

			if err != nil {
				// 通知是 best-effort：記 log 後交回隊列延遲重試
				logger.WithComponent("worker").Warn("dispatch failed, will retry",
					zap.String("kind", string(msg.Data.Kind)),
					zap.String("notification_id", msg.Data.ID.String()),
					zap.Error(err))
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}
