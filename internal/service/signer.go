package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bizhub-platform/auth-service/internal/events"
	"github.com/bizhub-platform/auth-service/internal/jwks"
	"github.com/bizhub-platform/auth-service/internal/metrics"
	"github.com/bizhub-platform/auth-service/internal/models"
	"github.com/bizhub-platform/auth-service/internal/pkg/log"
	"github.com/bizhub-platform/auth-service/internal/pkg/redact"
	"github.com/bizhub-platform/auth-service/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type accessClaims struct {
	TenantID string   `json:"tid"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// IssueTokens выпускает пару access+refresh токенов для учётной записи.
func (s *Service) IssueTokens(ctx context.Context, account *models.Account) (*models.TokenPair, error) {
	const op = "service.signer.IssueTokens"

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, account, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plain, err := s.generateRefreshToken(ctx, account, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.TokensIssued.Inc()
	s.publishActivity(ctx, events.Event{
		Type:     events.TypeTokenIssued,
		UserID:   account.ID,
		TenantID: account.TenantID,
		At:       now,
	})

	log.From(ctx).Debug("token_pair_issued",
		slog.String("op", op),
		slog.String("user_id", account.ID.String()),
		slog.String("email", redact.Email(account.Email)),
	)

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     plain,
		AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
		RefreshExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		ExpiresIn:        int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// generateAccessToken подписывает access-токен активным ключом;
// kid ключа уходит в заголовок.
func (s *Service) generateAccessToken(ctx context.Context, account *models.Account, now time.Time) (string, error) {
	const op = "service.signer.generateAccessToken"

	lg := log.From(ctx)

	claims := accessClaims{
		TenantID: account.TenantID.String(),
		Roles:    []string{account.Role},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   account.ID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.active.KID

	signed, err := token.SignedString(s.active.PrivateKey)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// generateRefreshToken создает новый refresh-токен: "{id}.{base64url(32 байта)}".
// В БД сохраняется только sha256-хэш значения.
func (s *Service) generateRefreshToken(ctx context.Context, account *models.Account, now time.Time) (string, error) {
	const (
		op          = "service.signer.generateRefreshToken"
		maxAttempts = 5
	)

	lg := log.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		plain := uuid.NewString() + "." + base64.RawURLEncoding.EncodeToString(b)

		token := &models.RefreshToken{
			ID:        uuid.New(),
			UserID:    account.ID,
			TenantID:  account.TenantID,
			TokenHash: hashRefreshToken(plain),
			IssuedAt:  now,
			ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		}

		if err := s.storage.SaveRefreshToken(ctx, token); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия — пробуем сгенерировать заново.
				continue
			}

			lg.Error("save_refresh_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return plain, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return "", fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}

// JWKS возвращает публичный набор ключей подписи: все активные ключи из БД,
// иначе единственный fallback-ключ.
func (s *Service) JWKS(ctx context.Context) (jwks.Document, error) {
	const op = "service.signer.JWKS"

	keys, err := s.storage.ActiveSigningKeys(ctx)
	if err != nil {
		return jwks.Document{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(keys) == 0 {
		if s.fallback == nil {
			return jwks.Document{}, fmt.Errorf("%s: %w", op, ErrNoSigningKey)
		}

		return jwks.Document{Keys: []jwks.JWK{
			jwks.FromPublicKey(s.fallback.KID, s.fallback.Public()),
		}}, nil
	}

	doc := jwks.Document{Keys: make([]jwks.JWK, 0, len(keys))}
	for i := range keys {
		doc.Keys = append(doc.Keys, jwks.FromPublicKey(keys[i].KID, keys[i].Public()))
	}

	return doc, nil
}

// ConsumeRefreshToken одноразово обменивает refresh-токен на снимок аккаунта.
//
// Контракт:
//   - пустой ввод и отсутствующая строка — (nil, nil) без ошибки;
//   - найденная строка удаляется безусловно (это и есть отзыв), и только
//     затем проверяется срок: просроченный токен тоже даёт (nil, nil);
//   - два конкурентных вызова сериализуются блокировкой строки в БД,
//     проигравший видит отсутствие строки.
func (s *Service) ConsumeRefreshToken(ctx context.Context, opaque string) (*models.Account, error) {
	const op = "service.signer.ConsumeRefreshToken"

	lg := log.From(ctx)

	if opaque == "" {
		return nil, nil
	}

	hash := hashRefreshToken(opaque)

	// Быстрый путь: хэш уже помечен погашенным — повтор, в БД не ходим.
	if s.ccache != nil {
		consumed, err := s.ccache.IsConsumed(ctx, hash)
		if err != nil {
			lg.Warn("consumed_cache_lookup_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		} else if consumed {
			s.noteRefreshReplay(ctx)
			return nil, nil
		}
	}

	ct, err := s.storage.ConsumeRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.noteRefreshReplay(ctx)
			return nil, nil
		}

		lg.Error("consume_refresh_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	// Строка уже удалена; просроченному токену аккаунт не возвращаем.
	if now.After(ct.ExpiresAt) {
		metrics.RefreshConsumed.WithLabelValues("expired").Inc()
		lg.Warn("refresh_expired_on_consume",
			slog.String("op", op),
			slog.String("user_id", ct.Account.ID.String()),
		)
		return nil, nil
	}

	if s.ccache != nil {
		if err := s.ccache.MarkConsumed(ctx, hash, time.Until(ct.ExpiresAt)); err != nil {
			lg.Warn("consumed_cache_mark_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	metrics.RefreshConsumed.WithLabelValues("ok").Inc()
	s.publishActivity(ctx, events.Event{
		Type:     events.TypeRefreshConsumed,
		UserID:   ct.Account.ID,
		TenantID: ct.Account.TenantID,
		At:       now,
	})

	account := ct.Account
	return &account, nil
}

// noteRefreshReplay фиксирует предъявление неизвестного или уже погашенного
// refresh-токена: возможный replay, поэтому событие дублируется алертом.
func (s *Service) noteRefreshReplay(ctx context.Context) {
	metrics.RefreshConsumed.WithLabelValues("replayed").Inc()

	e := events.Event{
		Type: events.TypeRefreshReplayed,
		At:   time.Now().UTC(),
	}
	s.publishActivity(ctx, e)
	s.alert(ctx, e)
}

// hashRefreshToken вычисляет sha256-хэш значения токена (base64url).
func hashRefreshToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
