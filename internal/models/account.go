package models

import (
	"time"

	"github.com/google/uuid"
)

// Account — снимок учётной записи, принадлежащей арендатору (tenant).
// Используется сервисом токенов: ровно эти поля нужны, чтобы выпустить
// новую пару токенов после обмена refresh-токена.
type Account struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Email    string
	// Role — роль учётной записи внутри арендатора (например, "owner", "admin", "staff").
	Role string
	// PasswordResetRequired — пользователь обязан сменить пароль до следующего входа.
	PasswordResetRequired bool
	PasswordResetAt       *time.Time
	LastLoginAt           *time.Time
	CreatedAt             time.Time
}
