package models

import "time"

// TokenPair — пара токенов, выдаваемая при аутентификации и ротации.
//
// Описание:
//   - AccessToken — короткоживущий подписанный токен (RS256) для доступа к API;
//   - RefreshToken — непрозрачный секрет вида "{id}.{base64url(32 байта)}";
//     клиент хранит его в HTTP-only cookie, на сервере хранится только хэш;
//   - AccessExpiresAt/RefreshExpiresAt — абсолютные моменты истечения (UTC);
//   - ExpiresIn — срок жизни access-токена в секундах (относительный).
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	ExpiresIn        int64
}
