package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/annel0/arena-game/internal/eventbus"
	"github.com/annel0/arena-game/internal/logging"
)

// Webhook внешний получатель событий игры
type Webhook struct {
	Name       string
	URL        string
	Secret     string        // Если задан, тело подписывается HMAC-SHA256
	Events     []string      // Типы событий; "*" или пусто - все
	Timeout    time.Duration // По умолчанию 10с
	RetryCount int
}

// WebhookEvent тело запроса к webhook'у
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Timestamp int64           `json:"timestamp"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
}

// WebhookNotifier пересылает события шины во внешние webhook'и
type WebhookNotifier struct {
	hooks      []Webhook
	client     *http.Client
	retryDelay time.Duration
	logger     *logging.Logger
	wg         sync.WaitGroup
}

// NewWebhookNotifier создаёт рассыльщик. retryDelay - пауза перед повтором,
// растёт линейно с номером попытки.
func NewWebhookNotifier(hooks []Webhook, retryDelay time.Duration, logger *logging.Logger) *WebhookNotifier {
	for i := range hooks {
		if hooks[i].Timeout <= 0 {
			hooks[i].Timeout = 10 * time.Second
		}
	}
	return &WebhookNotifier{
		hooks:      hooks,
		client:     &http.Client{},
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Subscribe подписывает рассыльщик на все события шины
func (n *WebhookNotifier) Subscribe(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	return bus.Subscribe(ctx, eventbus.Filter{}, n.Notify)
}

// Notify отправляет событие всем подписанным webhook'ам в отдельных горутинах
func (n *WebhookNotifier) Notify(ctx context.Context, ev *eventbus.Envelope) {
	body, err := json.Marshal(WebhookEvent{
		ID:        ev.ID,
		EventType: ev.EventType,
		Timestamp: ev.Timestamp.Unix(),
		Source:    ev.Source,
		Data:      ev.Payload,
	})
	if err != nil {
		n.logger.Error("❌ Ошибка маршалинга события %s: %v", ev.EventType, err)
		return
	}

	for _, hook := range n.hooks {
		if !subscribed(hook, ev.EventType) {
			continue
		}
		n.wg.Add(1)
		go func(hook Webhook) {
			defer n.wg.Done()
			n.send(ctx, hook, ev.EventType, body)
		}(hook)
	}
}

// Wait дожидается завершения отправок
func (n *WebhookNotifier) Wait() {
	n.wg.Wait()
}

func subscribed(hook Webhook, eventType string) bool {
	if len(hook.Events) == 0 {
		return true
	}
	for _, subscribedEvent := range hook.Events {
		if subscribedEvent == eventType || subscribedEvent == "*" {
			return true
		}
	}
	return false
}

// send отправляет тело с повторами; возвращает true при ответе 2xx
func (n *WebhookNotifier) send(ctx context.Context, hook Webhook, eventType string, body []byte) bool {
	for attempt := 0; attempt <= hook.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * n.retryDelay):
			case <-ctx.Done():
				return false
			}
		}

		status, err := n.post(ctx, hook, eventType, body)
		if err == nil && status >= 200 && status < 300 {
			n.logger.Debug("✅ Событие %s отправлено в webhook %s", eventType, hook.Name)
			return true
		}
		if err == nil {
			err = fmt.Errorf("status %d", status)
		}
		n.logger.Warn("⚠️ Попытка %d/%d для webhook %s: %v", attempt+1, hook.RetryCount+1, hook.Name, err)
	}
	return false
}

func (n *WebhookNotifier) post(ctx context.Context, hook Webhook, eventType string, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, hook.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Arena-Server/1.0")
	req.Header.Set("X-Event-Type", eventType)
	if hook.Secret != "" {
		req.Header.Set("X-Webhook-Signature", SignPayload(body, hook.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// SignPayload возвращает подпись тела в формате "sha256=<hex>"
func SignPayload(data []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
