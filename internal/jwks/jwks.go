// jwks — работа с публикуемым набором ключей проверки подписи (JWKS).
//
// Пакет отвечает за две стороны одного формата:
//   - построение JWK из публичного ключа RSA (для эндпоинта подписывающей стороны);
//   - разбор и валидацию JWKS-документа, полученного от удалённого эмитента.
package jwks

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// SigningAlgorithm — единственный поддерживаемый алгоритм подписи.
const SigningAlgorithm = "RS256"

var (
	// ErrDecode — эндпоинт ответил, но тело не является корректным JWKS-документом.
	ErrDecode = errors.New("jwks decode failed")
	// ErrMissingKID — в записи ключа отсутствует kid.
	ErrMissingKID = errors.New("jwks key missing kid")
	// ErrMissingComponents — в записи ключа отсутствует модуль или экспонента.
	ErrMissingComponents = errors.New("jwks key missing modulus or exponent")
	// ErrUnsupportedKeyType — тип ключа отличен от RSA; текст ошибки несёт полученный kty.
	ErrUnsupportedKeyType = errors.New("unsupported jwk key type")
	// ErrUnsupportedAlgorithm — указанный alg отличается от RS256.
	ErrUnsupportedAlgorithm = errors.New("unsupported jwk algorithm")
)

// JWK — одна запись JWKS-документа. Содержит только публичный материал.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Document — JWKS-документ в формате `{"keys": [...]}`.
type Document struct {
	Keys []JWK `json:"keys"`
}

// Key — разобранная пара (kid, публичный ключ).
type Key struct {
	Kid    string
	Public *rsa.PublicKey
}

// FromPublicKey строит JWK-запись для публичного ключа RSA.
func FromPublicKey(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		Alg: SigningAlgorithm,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// ParseJWK валидирует запись документа и восстанавливает публичный ключ.
// Правила (в порядке проверки):
//   - kid обязателен;
//   - kty должен быть RSA;
//   - alg, если указан, должен совпадать с RS256;
//   - n и e обязательны и должны быть base64url.
func ParseJWK(k JWK) (Key, error) {
	const op = "jwks.ParseJWK"

	if k.Kid == "" {
		return Key{}, fmt.Errorf("%s: %w", op, ErrMissingKID)
	}

	if k.Kty != "RSA" {
		return Key{}, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedKeyType, k.Kty)
	}

	if k.Alg != "" && k.Alg != SigningAlgorithm {
		return Key{}, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedAlgorithm, k.Alg)
	}

	if k.N == "" || k.E == "" {
		return Key{}, fmt.Errorf("%s: %w (kid=%s)", op, ErrMissingComponents, k.Kid)
	}

	n, err := decodeBase64URL(k.N)
	if err != nil {
		return Key{}, fmt.Errorf("%s: %w (kid=%s)", op, ErrMissingComponents, k.Kid)
	}

	e, err := decodeBase64URL(k.E)
	if err != nil {
		return Key{}, fmt.Errorf("%s: %w (kid=%s)", op, ErrMissingComponents, k.Kid)
	}

	return Key{
		Kid: k.Kid,
		Public: &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		},
	}, nil
}

func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
