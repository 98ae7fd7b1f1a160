package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bizhub-platform/auth-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (ключ/токен/аккаунт/секрет).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (refresh-token hash).
	ErrAlreadyExists = errors.New("already exists")
)

// ConsumedToken — результат одноразового погашения refresh-токена.
// Строка токена к этому моменту уже удалена из БД; ExpiresAt нужен
// вызывающему, чтобы решить, была ли сессия ещё жива.
type ConsumedToken struct {
	Account   models.Account
	TokenID   uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SigningKeyStorage читает ключи подписи. Ядро сервиса ключи не изменяет.
type SigningKeyStorage interface {
	// ActiveSigningKeys возвращает все активные ключи, самые свежие первыми.
	ActiveSigningKeys(ctx context.Context) ([]models.SigningKey, error)
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-токен.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// ConsumeRefreshToken в одной транзакции блокирует строку по хэшу,
	// безусловно удаляет её и возвращает снимок аккаунта-владельца.
	// Отсутствие строки — ErrNotFound.
	ConsumeRefreshToken(ctx context.Context, hash string) (*ConsumedToken, error)
	// DeleteExpiredRefreshTokens удаляет все просроченные токены.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}

// AccountStorage читает учётные записи.
type AccountStorage interface {
	// AccountByID находит аккаунт по ID.
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// MFAStorage выполняет операции над секретами второго фактора.
type MFAStorage interface {
	// MFASecretByUserID возвращает состояние фактора пользователя.
	MFASecretByUserID(ctx context.Context, userID uuid.UUID) (*models.MFASecret, error)
	// UpsertPendingMFASecret устанавливает (или заменяет) pending-секрет,
	// не трогая подтверждённый.
	UpsertPendingMFASecret(ctx context.Context, userID uuid.UUID, secret string) error
	// ConfirmMFASecret атомарно переносит pending в confirmed и очищает pending.
	// Отсутствие pending-секрета — ErrNotFound.
	ConfirmMFASecret(ctx context.Context, userID uuid.UUID, now time.Time) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	SigningKeyStorage
	RefreshTokenStorage
	AccountStorage
	MFAStorage
	Close()
}
