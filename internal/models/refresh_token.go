package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — данные refresh-токена для управления сессиями.
// В БД хранится только хэш секрета; сам секрет существует лишь
// в ответе клиенту в момент выпуска.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TenantID  uuid.UUID
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
