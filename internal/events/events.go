// events — best-effort публикация событий безопасности.
//
// Ядро аутентификации не зависит от конкретного клиента брокера: Publisher —
// маленький интерфейс ровно с двумя реализациями, боевой (Kafka) и пустой
// (для тестов и конфигураций без брокера). Сбои доставки гасятся локально
// (ретраи, DLQ-топик, лог) и никогда не проваливают основную операцию.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Типы событий активности.
const (
	TypeTokenIssued        = "token.issued"
	TypeRefreshConsumed    = "token.refresh_consumed"
	TypeRefreshReplayed    = "token.refresh_replayed"
	TypeMFAEnrollStarted   = "mfa.enroll_started"
	TypeMFAEnrolled        = "mfa.enrolled"
	TypeMFAVerifyFailed    = "mfa.verify_failed"
	TypeMFAChallengePassed = "mfa.challenge_passed"
)

// Event — событие безопасности, публикуемое в шину активности.
type Event struct {
	Type     string            `json:"type"`
	UserID   uuid.UUID         `json:"user_id"`
	TenantID uuid.UUID         `json:"tenant_id"`
	At       time.Time         `json:"at"`
	Details  map[string]string `json:"details,omitempty"`
}

// Publisher публикует события активности.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher — пустая реализация для тестов и запуска без брокера.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

var _ Publisher = NopPublisher{}
