package models

import (
	"crypto/rsa"
	"time"
)

// SigningKey — ключ подписи access-токенов.
//
// Описание:
//   - KID — идентификатор ключа, попадает в заголовок токена и в JWKS-документ;
//   - PrivateKey — приватный ключ RSA (в БД хранится в PEM);
//   - Active — ключ участвует в публичном JWKS; для подписи используется
//     только самый свежий активный ключ;
//   - ядро сервиса никогда не изменяет ключи: они создаются внешней
//     процедурой ротации и только читаются.
type SigningKey struct {
	KID        string
	Algorithm  string
	PrivateKey *rsa.PrivateKey
	Active     bool
	CreatedAt  time.Time
}

// Public возвращает публичную часть ключа.
func (k *SigningKey) Public() *rsa.PublicKey {
	return &k.PrivateKey.PublicKey
}
