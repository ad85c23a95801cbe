package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"event-lifecycle/internal/model"
	"event-lifecycle/pkg/logger"

	"go.uber.org/zap"
)

// Dispatcher 外部通知管道（email/webhook）。回傳的錯誤只拿來決定重試，
// 絕不影響觸發通知的狀態轉換。
type Dispatcher interface {
	Dispatch(ctx context.Context, n *model.Notification) error
}

// WebhookDispatcher 把通知 POST 到下游通知服務
type WebhookDispatcherImpl struct {
	url    string
	client *http.Client
}

func NewWebhookDispatcher(url string) Dispatcher {
	return &WebhookDispatcherImpl{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (d *WebhookDispatcherImpl) Dispatch(ctx context.Context, n *model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// LogDispatcher 未設定 webhook 時的落地實作：只記 log
type LogDispatcherImpl struct{}

func NewLogDispatcher() Dispatcher {
	return &LogDispatcherImpl{}
}

func (d *LogDispatcherImpl) Dispatch(ctx context.Context, n *model.Notification) error {
	logger.WithComponent("notify").Info("notification",
		zap.String("kind", string(n.Kind)),
		zap.String("registration_id", n.RegistrationID.String()),
		zap.Int("participant_id", n.ParticipantID),
		zap.String("event_name", n.EventName),
	)
	return nil
}
