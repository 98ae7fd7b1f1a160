// Package httpx — отображение ошибок сервисного слоя на HTTP-ответы
// и вспомогательные примитивы транспорта (refresh-cookie).
//
// Контракт отображения ошибок:
//   - verifier.ErrInvalidToken/ErrTokenExpired/ErrMissingKeyID/ErrUnknownKeyID -> 401;
//   - claims.ErrInvalidClaim -> 401;
//   - service.ErrMFACodeInvalid/ErrMFARequired -> 401/403;
//   - service.ErrMFAEnrollmentNotStarted/ErrMFANotEnrolled -> 409;
//   - иные ошибки -> 500 c единым безопасным сообщением; детали внутренних
//     ошибок наружу не утекают, подробности должны попадать в логи.
package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/bizhub-platform/auth-service/internal/claims"
	"github.com/bizhub-platform/auth-service/internal/config"
	"github.com/bizhub-platform/auth-service/internal/service"
	"github.com/bizhub-platform/auth-service/internal/verifier"
)

// ErrorBody — машиночитаемое тело ошибки.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MapError сопоставляет ошибку сервисного слоя с HTTP-статусом и телом ответа.
func MapError(err error) (int, ErrorBody) {
	switch {
	case errors.Is(err, verifier.ErrTokenExpired):
		return http.StatusUnauthorized, ErrorBody{Code: "AUTH_TOKEN_EXPIRED", Message: "token expired"}
	case errors.Is(err, verifier.ErrMissingKeyID):
		return http.StatusUnauthorized, ErrorBody{Code: "AUTH_MISSING_KEY_ID", Message: "token has no key id"}
	case errors.Is(err, verifier.ErrUnknownKeyID):
		return http.StatusUnauthorized, ErrorBody{Code: "AUTH_UNKNOWN_KEY_ID", Message: "unknown signing key"}
	case errors.Is(err, verifier.ErrInvalidToken):
		return http.StatusUnauthorized, ErrorBody{Code: "AUTH_INVALID_TOKEN", Message: "invalid token"}
	case errors.Is(err, claims.ErrInvalidClaim):
		return http.StatusUnauthorized, ErrorBody{Code: "AUTH_INVALID_CLAIM", Message: "invalid token claims"}
	case errors.Is(err, service.ErrMFACodeInvalid):
		return http.StatusUnauthorized, ErrorBody{Code: "MFA_CODE_INVALID", Message: "invalid one-time code"}
	case errors.Is(err, service.ErrMFARequired):
		return http.StatusForbidden, ErrorBody{Code: "MFA_REQUIRED", Message: "multi-factor authentication required"}
	case errors.Is(err, service.ErrMFAEnrollmentNotStarted):
		return http.StatusConflict, ErrorBody{Code: "MFA_ENROLLMENT_NOT_STARTED", Message: "enrollment not started"}
	case errors.Is(err, service.ErrMFANotEnrolled):
		return http.StatusConflict, ErrorBody{Code: "MFA_NOT_ENROLLED", Message: "multi-factor authentication not enrolled"}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: "INTERNAL", Message: "internal server error"}
	}
}

// RefreshCookie собирает HttpOnly-cookie c refresh-токеном по настройкам сервиса.
// Пустое value с нулевым expires дает удаляющую cookie (MaxAge < 0).
func RefreshCookie(cfg config.CookieConfig, value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite(cfg.SameSite),
	}
	if value == "" {
		c.MaxAge = -1
		return c
	}
	c.Expires = expires
	return c
}

func sameSite(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
