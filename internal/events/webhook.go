package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bizhub-platform/auth-service/internal/pkg/log"
)

// alertTimeout ограничивает доставку одного алерта.
const alertTimeout = 5 * time.Second

// Alerter отправляет алерты о подозрительной активности на внешний webhook.
// Пустой URL полностью отключает отправку.
type Alerter struct {
	url    string
	client *http.Client
}

// NewAlerter создаёт Alerter. url == "" — все вызовы Alert становятся no-op.
func NewAlerter(url string) *Alerter {
	return &Alerter{
		url:    url,
		client: &http.Client{Timeout: alertTimeout},
	}
}

// Alert доставляет событие на webhook. Ошибка логируется и возвращается
// только для наблюдаемости: вызывающий не должен проваливать из-за неё
// основную операцию.
func (a *Alerter) Alert(ctx context.Context, e Event) error {
	const op = "events.webhook.Alert"

	if a.url == "" {
		return nil
	}

	lg := log.From(ctx)

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		lg.Warn("alert_delivery_failed",
			slog.String("op", op),
			slog.String("type", e.Type),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		lg.Warn("alert_delivery_rejected",
			slog.String("op", op),
			slog.String("type", e.Type),
			slog.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	return nil
}
