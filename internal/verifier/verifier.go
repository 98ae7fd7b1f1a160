// verifier проверяет входящие access-токены по набору доверенных публичных
// ключей и превращает их в типизированные claims.
//
// Набор ключей живёт в приватном keystore. Если сконфигурирован удалённый
// эндпоинт JWKS, набор можно обновлять явно (RefreshJWKS) или фоновым
// циклом (RunRefreshLoop); неудачное обновление никогда не трогает уже
// установленные ключи, поэтому идущие проверки продолжают работать по
// прежнему набору.
package verifier

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bizhub-platform/auth-service/internal/claims"
	"github.com/bizhub-platform/auth-service/internal/jwks"
	"github.com/bizhub-platform/auth-service/internal/keystore"
	"github.com/bizhub-platform/auth-service/internal/metrics"
	"github.com/bizhub-platform/auth-service/internal/pkg/log"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingKeyID — в заголовке токена нет kid.
	// Транспорт: codes.Unauthenticated (HTTP 401).
	ErrMissingKeyID = errors.New("token header missing kid")

	// ErrUnknownKeyID — kid из заголовка не найден среди доверенных ключей.
	// Транспорт: codes.Unauthenticated (HTTP 401).
	ErrUnknownKeyID = errors.New("unknown key id")

	// ErrInvalidToken — токен некорректен: формат, подпись, издатель или
	// аудитория. Транспорт: codes.Unauthenticated (HTTP 401).
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк (с учётом leeway).
	// Транспорт: codes.Unauthenticated (HTTP 401).
	ErrTokenExpired = errors.New("token expired")
)

// minRefreshInterval — нижняя граница периода фонового обновления JWKS.
const minRefreshInterval = time.Minute

// Fetcher получает удалённый набор ключей. Реализуется jwks.Client;
// в тестах подменяется.
type Fetcher interface {
	Fetch(ctx context.Context) ([]jwks.Key, error)
}

// Config — параметры проверки токенов.
type Config struct {
	Issuer   string
	Audience []string
	Leeway   time.Duration
}

// Verifier проверяет токены. Безопасен для конкурентного использования.
type Verifier struct {
	cfg     Config
	store   *keystore.Store
	fetcher Fetcher // nil, если удалённый эндпоинт не сконфигурирован
}

// New создаёт Verifier. fetcher может быть nil — тогда RefreshJWKS
// превращается в no-op, а набор ключей наполняется только через InstallKey.
func New(cfg Config, fetcher Fetcher) *Verifier {
	return &Verifier{
		cfg:     cfg,
		store:   keystore.New(),
		fetcher: fetcher,
	}
}

// InstallKey добавляет доверенный ключ в набор (локальная инициализация).
func (v *Verifier) InstallKey(kid string, key *rsa.PublicKey) {
	v.store.Set(kid, key)
}

// KeyCount возвращает размер текущего набора ключей.
func (v *Verifier) KeyCount() int {
	return v.store.Len()
}

// Verify валидирует подпись, издателя, аудиторию и срок действия токена,
// затем строго декодирует payload в claims.
func (v *Verifier) Verify(tokenStr string) (*claims.Claims, error) {
	const op = "verifier.Verify"

	payload := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, payload, v.keyFor,
		jwt.WithValidMethods([]string{jwks.SigningAlgorithm}),
		jwt.WithLeeway(v.cfg.Leeway),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience...),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		metrics.VerifyFailures.Inc()

		switch {
		case errors.Is(err, ErrMissingKeyID):
			return nil, fmt.Errorf("%s: %w", op, ErrMissingKeyID)
		case errors.Is(err, ErrUnknownKeyID):
			return nil, fmt.Errorf("%s: %w", op, ErrUnknownKeyID)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		default:
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
	}

	decoded, err := claims.FromPayload(payload)
	if err != nil {
		metrics.VerifyFailures.Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return decoded, nil
}

// keyFor выбирает ключ проверки по kid из заголовка.
func (v *Verifier) keyFor(t *jwt.Token) (interface{}, error) {
	kid, ok := t.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, ErrMissingKeyID
	}

	key, ok := v.store.Get(kid)
	if !ok {
		return nil, ErrUnknownKeyID
	}

	return key, nil
}

// RefreshJWKS перечитывает удалённый набор ключей и целиком заменяет им
// текущий. Возвращает число установленных ключей.
//
// Контракт:
//   - fetcher не сконфигурирован — (0, nil), набор не меняется;
//   - ошибка получения — (0, err), набор не меняется;
//   - пустой успешный результат — (0, nil), набор не меняется;
//   - непустой результат — полная замена набора.
func (v *Verifier) RefreshJWKS(ctx context.Context) (int, error) {
	const op = "verifier.RefreshJWKS"

	if v.fetcher == nil {
		return 0, nil
	}

	keys, err := v.fetcher.Fetch(ctx)
	if err != nil {
		metrics.JWKSRefreshes.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if len(keys) == 0 {
		return 0, nil
	}

	next := make(map[string]*rsa.PublicKey, len(keys))
	for _, k := range keys {
		next[k.Kid] = k.Public
	}
	v.store.ReplaceAll(next)

	metrics.JWKSRefreshes.WithLabelValues("ok").Inc()

	return len(next), nil
}

// RunRefreshLoop периодически обновляет набор ключей, пока не отменён
// контекст. Период ограничен снизу минутой; тики, пропущенные во время
// долгого обновления, не навёрстываются пачкой — следующий тик просто
// приходит позже (семантика time.Ticker).
func (v *Verifier) RunRefreshLoop(ctx context.Context, interval time.Duration) {
	const op = "verifier.RunRefreshLoop"

	if v.fetcher == nil {
		return
	}

	if interval < minRefreshInterval {
		interval = minRefreshInterval
	}

	lg := log.From(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := v.RefreshJWKS(ctx)
			if err != nil {
				lg.Error("jwks_refresh_failed",
					slog.String("op", op),
					slog.String("err", err.Error()),
				)
				continue
			}

			lg.Debug("jwks_refreshed",
				slog.String("op", op),
				slog.Int("keys", n),
			)
		}
	}
}
