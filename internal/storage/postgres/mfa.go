package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizhub-platform/auth-service/internal/models"
	"github.com/bizhub-platform/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MFASecretByUserID возвращает MFA-запись пользователя.
//
// Возвращает storage.ErrNotFound, если пользователь не начинал регистрацию.
func (s *Storage) MFASecretByUserID(ctx context.Context, userID uuid.UUID) (*models.MFASecret, error) {
	const op = "storage.postgres.MFASecretByUserID"

	query := `SELECT user_id, pending_secret, confirmed_secret, enrolled_at, updated_at
	          FROM mfa_secrets
	          WHERE user_id = $1;`

	var secret models.MFASecret
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&secret.UserID, &secret.Pending, &secret.Confirmed, &secret.EnrolledAt, &secret.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &secret, nil
}

// UpsertPendingMFASecret записывает новый ожидающий подтверждения секрет,
// перезаписывая прежний ожидающий. Подтвержденный секрет не трогается.
func (s *Storage) UpsertPendingMFASecret(ctx context.Context, userID uuid.UUID, secret string) error {
	const op = "storage.postgres.UpsertPendingMFASecret"

	query := `INSERT INTO mfa_secrets (user_id, pending_secret, updated_at)
	          VALUES ($1, $2, now())
	          ON CONFLICT (user_id) DO UPDATE
	          SET pending_secret = EXCLUDED.pending_secret,
	              updated_at = now();`

	if _, err := s.db.Exec(ctx, query, userID, secret); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConfirmMFASecret атомарно переводит ожидающий секрет в подтвержденные.
//
// Возвращает storage.ErrNotFound, если ожидающего секрета нет.
func (s *Storage) ConfirmMFASecret(ctx context.Context, userID uuid.UUID, now time.Time) error {
	const op = "storage.postgres.ConfirmMFASecret"

	query := `UPDATE mfa_secrets
	          SET confirmed_secret = pending_secret,
	              pending_secret = NULL,
	              enrolled_at = $2,
	              updated_at = $2
	          WHERE user_id = $1 AND pending_secret IS NOT NULL;`

	tag, err := s.db.Exec(ctx, query, userID, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
