package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizhub-platform/auth-service/internal/models"
	"github.com/bizhub-platform/auth-service/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveRefreshToken сохраняет хэш refresh-токена.
//
// Возвращает storage.ErrAlreadyExists при коллизии хэша.
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.postgres.SaveRefreshToken"

	query := `INSERT INTO refresh_tokens (id, user_id, tenant_id, token_hash, issued_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6);`

	_, err := s.db.Exec(ctx, query,
		token.ID, token.UserID, token.TenantID, token.TokenHash, token.IssuedAt, token.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConsumeRefreshToken атомарно находит и удаляет refresh-токен по хэшу,
// возвращая токен вместе с аккаунтом владельца. Выборка и удаление идут
// в одной транзакции с блокировкой строки, поэтому из двух конкурентных
// вызовов с одним хэшем токен получает ровно один.
//
// Токен удаляется даже если уже истек: решение об истечении принимает
// вызывающий по ExpiresAt. Возвращает storage.ErrNotFound, если хэш
// неизвестен (в том числе если токен уже употреблен).
func (s *Storage) ConsumeRefreshToken(ctx context.Context, tokenHash string) (*storage.ConsumedToken, error) {
	const op = "storage.postgres.ConsumeRefreshToken"

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT rt.id, rt.issued_at, rt.expires_at,
	                 a.id, a.tenant_id, a.name, a.email, a.role,
	                 a.password_reset_required, a.password_reset_at, a.last_login_at, a.created_at
	          FROM refresh_tokens rt
	          JOIN accounts a ON a.id = rt.user_id
	          WHERE rt.token_hash = $1
	          FOR UPDATE OF rt;`

	var consumed storage.ConsumedToken
	err = tx.QueryRow(ctx, query, tokenHash).Scan(
		&consumed.TokenID, &consumed.IssuedAt, &consumed.ExpiresAt,
		&consumed.Account.ID, &consumed.Account.TenantID, &consumed.Account.Name,
		&consumed.Account.Email, &consumed.Account.Role,
		&consumed.Account.PasswordResetRequired, &consumed.Account.PasswordResetAt,
		&consumed.Account.LastLoginAt, &consumed.Account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1;`, consumed.TokenID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &consumed, nil
}

// DeleteExpiredRefreshTokens удаляет токены с истекшим сроком жизни.
func (s *Storage) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredRefreshTokens"

	if _, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1;`, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
