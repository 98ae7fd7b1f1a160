// rsapem — разбор и кодирование приватных ключей RSA в PEM.
// Используется конфигурацией (локальный fallback-ключ) и хранилищем
// (ключи подписи в БД лежат в PEM).
package rsapem

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

var (
	// ErrNotPEM — входные данные не являются PEM-блоком.
	ErrNotPEM = errors.New("not a PEM block")
	// ErrNotRSA — ключ разобран, но это не RSA.
	ErrNotRSA = errors.New("not an RSA private key")
)

// Parse разбирает приватный ключ RSA из PEM (PKCS#1 или PKCS#8).
func Parse(pemStr string) (*rsa.PrivateKey, error) {
	const op = "rsapem.Parse"

	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotPEM)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNotRSA)
	}

	return key, nil
}

// Encode кодирует приватный ключ RSA в PEM (PKCS#1).
func Encode(key *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}
