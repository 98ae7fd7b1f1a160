package postgres

import (
	"context"
	"fmt"

	"github.com/bizhub-platform/auth-service/internal/models"
	"github.com/bizhub-platform/auth-service/internal/pkg/rsapem"
)

// ActiveSigningKeys возвращает активные ключи подписи, новые первыми.
// Приватные ключи хранятся в PEM и разбираются при чтении; ключ с
// некорректным PEM делает выборку ошибочной целиком.
func (s *Storage) ActiveSigningKeys(ctx context.Context) ([]models.SigningKey, error) {
	const op = "storage.postgres.ActiveSigningKeys"

	query := `SELECT kid, algorithm, private_key, active, created_at
	          FROM signing_keys
	          WHERE active = TRUE
	          ORDER BY created_at DESC;`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var keys []models.SigningKey
	for rows.Next() {
		var (
			key models.SigningKey
			pem string
		)
		if err := rows.Scan(&key.KID, &key.Algorithm, &pem, &key.Active, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		key.PrivateKey, err = rsapem.Parse(pem)
		if err != nil {
			return nil, fmt.Errorf("%s: key %q: %w", op, key.KID, err)
		}

		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return keys, nil
}
