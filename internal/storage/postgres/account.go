package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bizhub-platform/auth-service/internal/models"
	"github.com/bizhub-platform/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountByID возвращает аккаунт по идентификатору.
//
// Возвращает storage.ErrNotFound, если аккаунт не существует.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `SELECT id, tenant_id, name, email, role,
	                 password_reset_required, password_reset_at, last_login_at, created_at
	          FROM accounts
	          WHERE id = $1;`

	var account models.Account
	err := s.db.QueryRow(ctx, query, id).Scan(
		&account.ID, &account.TenantID, &account.Name, &account.Email, &account.Role,
		&account.PasswordResetRequired, &account.PasswordResetAt,
		&account.LastLoginAt, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &account, nil
}
