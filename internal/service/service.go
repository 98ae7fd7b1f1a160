// service содержит бизнес-логику ядра аутентификации: выпуск пар токенов,
// одноразовое погашение refresh-токенов, публичный JWKS-документ подписи
// и жизненный цикл второго фактора (TOTP).
//
// Основные аспекты:
//   - Экземпляр Service безопасен для конкурентного использования из разных
//     горутин при условии, что переданное хранилище (storage.Storage)
//     потокобезопасно.
//   - Активный ключ подписи выбирается один раз при конструировании:
//     самый свежий активный ключ из БД, иначе локальный fallback-ключ из
//     конфигурации; если нет ни того, ни другого — конструктор возвращает
//     ошибку, и процесс не должен стартовать.
//   - События активности и алерты доставляются best-effort и никогда не
//     проваливают основную операцию.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bizhub-platform/auth-service/internal/cache"
	"github.com/bizhub-platform/auth-service/internal/config"
	"github.com/bizhub-platform/auth-service/internal/events"
	"github.com/bizhub-platform/auth-service/internal/models"
	"github.com/bizhub-platform/auth-service/internal/pkg/log"
	"github.com/bizhub-platform/auth-service/internal/pkg/rsapem"
	"github.com/bizhub-platform/auth-service/internal/storage"
)

// FallbackKeyID — фиксированный kid локального fallback-ключа подписи.
const FallbackKeyID = "local-dev"

// activityTimeout ограничивает доставку одного события активности.
const activityTimeout = 3 * time.Second

var (
	// ErrNoSigningKey — ни в БД, ни в конфигурации нет ключа подписи.
	// Фатально: сервис не должен стартовать в полурабочем состоянии.
	ErrNoSigningKey = errors.New("no signing key configured")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный
	// refresh-токен (редкие коллизии хэша при сохранении).
	// Транспорт: codes.Internal (HTTP 500).
	ErrRefreshTokenCollision = errors.New("refresh token collision")

	// ErrMFAEnrollmentNotStarted — проверка кода без начатого enrollment.
	// Транспорт: клиентская ошибка (HTTP 409), код MFA_ENROLLMENT_NOT_STARTED.
	ErrMFAEnrollmentNotStarted = errors.New("mfa enrollment not started")

	// ErrMFACodeInvalid — код не прошёл нормализацию или проверку.
	// Транспорт: клиентская ошибка (HTTP 400), код MFA_CODE_INVALID.
	ErrMFACodeInvalid = errors.New("mfa code invalid")

	// ErrMFANotEnrolled — у пользователя нет подтверждённого фактора.
	// Транспорт: клиентская ошибка (HTTP 409), код MFA_NOT_ENROLLED.
	ErrMFANotEnrolled = errors.New("mfa not enrolled")

	// ErrMFARequired — политика требует второй фактор для этой операции.
	// Транспорт: codes.Unauthenticated (HTTP 401), код MFA_REQUIRED.
	ErrMFARequired = errors.New("mfa required")
)

// Service описывает бизнес-логику ядра аутентификации.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig

	// active — ключ, которым подписываются access-токены.
	active *models.SigningKey
	// fallback — локальный ключ из конфигурации; nil, если не задан.
	fallback *models.SigningKey

	publisher events.Publisher // может быть nil
	alerter   *events.Alerter  // может быть nil
	ccache    cache.ConsumedCache
}

// New создаёт Service, выбирая активный ключ подписи.
func New(ctx context.Context, st storage.Storage, cfg config.AuthConfig) (*Service, error) {
	const op = "service.New"

	s := &Service{
		storage: st,
		cfg:     cfg,
	}

	if cfg.LocalSigningKey != "" {
		priv, err := rsapem.Parse(cfg.LocalSigningKey)
		if err != nil {
			return nil, fmt.Errorf("%s: parse local signing key: %w", op, err)
		}

		s.fallback = &models.SigningKey{
			KID:        FallbackKeyID,
			Algorithm:  "RS256",
			PrivateKey: priv,
			Active:     true,
			CreatedAt:  time.Now().UTC(),
		}
	}

	keys, err := st.ActiveSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case len(keys) > 0:
		// Самый свежий активный ключ — первым.
		s.active = &keys[0]
	case s.fallback != nil:
		s.active = s.fallback
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrNoSigningKey)
	}

	return s, nil
}

// SetConsumedCache устанавливает кэш погашенных refresh-токенов (опционально).
func (s *Service) SetConsumedCache(c cache.ConsumedCache) {
	s.ccache = c
}

// SetPublisher устанавливает публикатор событий активности (опционально).
func (s *Service) SetPublisher(p events.Publisher) {
	s.publisher = p
}

// SetAlerter устанавливает webhook-нотификатор алертов (опционально).
func (s *Service) SetAlerter(a *events.Alerter) {
	s.alerter = a
}

// publishActivity доставляет событие best-effort: с собственным таймаутом,
// независимо от отмены запроса; ошибка только логируется.
func (s *Service) publishActivity(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityTimeout)
	defer cancel()

	if err := s.publisher.Publish(pctx, e); err != nil {
		log.From(ctx).Warn("activity_publish_dropped",
			slog.String("type", e.Type),
			slog.String("err", err.Error()),
		)
	}
}

// alert доставляет алерт о подозрительной активности best-effort.
func (s *Service) alert(ctx context.Context, e events.Event) {
	if s.alerter == nil {
		return
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityTimeout)
	defer cancel()

	// Ошибка уже залогирована внутри Alerter.
	_ = s.alerter.Alert(actx, e)
}
