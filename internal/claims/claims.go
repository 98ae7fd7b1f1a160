// claims описывает типизированную модель claims access-токена и строгий
// декодер из «сырого» payload подписанного токена.
//
// Декодер сознательно строг к полям, от которых зависит безопасность
// (sub, tid, exp), и при этом пропускает все остальные поля без потерь
// через Raw — для прямой совместимости с будущими расширениями payload.
package claims

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidClaim — payload подписан корректно, но поле claims
// структурно некорректно. Транспорт: клиентская ошибка (HTTP 400),
// повторять запрос бессмысленно.
var ErrInvalidClaim = errors.New("invalid claim")

// InvalidClaimError уточняет, какое поле и с каким значением не прошло декодирование.
type InvalidClaimError struct {
	Claim string
	Value any
}

func (e *InvalidClaimError) Error() string {
	return fmt.Sprintf("invalid claim %q: %v", e.Claim, e.Value)
}

func (e *InvalidClaimError) Unwrap() error { return ErrInvalidClaim }

// Claims — валидированное содержимое access-токена.
type Claims struct {
	// Subject — идентификатор учётной записи (claim "sub").
	Subject uuid.UUID
	// Tenant — идентификатор арендатора (claim "tid").
	Tenant uuid.UUID
	// Roles — роли субъекта внутри арендатора.
	Roles []string
	// ExpiresAt — момент истечения; после декодирования присутствует всегда.
	ExpiresAt time.Time
	// IssuedAt — момент выпуска; может отсутствовать.
	IssuedAt *time.Time
	Issuer   string
	// Audience нормализуется к списку независимо от представления в payload.
	Audience []string
	// Raw — полный payload без изменений, включая нераспознанные поля.
	Raw map[string]any
}

// FromPayload строго декодирует payload в Claims.
func FromPayload(payload map[string]any) (*Claims, error) {
	const op = "claims.FromPayload"

	sub, err := parseUUIDClaim(payload, "sub")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tid, err := parseUUIDClaim(payload, "tid")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exp, ok := parseUnix(payload["exp"])
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, &InvalidClaimError{Claim: "exp", Value: payload["exp"]})
	}

	c := &Claims{
		Subject:   sub,
		Tenant:    tid,
		Roles:     stringList(payload["roles"]),
		ExpiresAt: exp,
		Audience:  audienceList(payload["aud"]),
		Raw:       RawPayload(payload),
	}

	if iss, ok := payload["iss"].(string); ok {
		c.Issuer = iss
	}

	if iat, ok := parseUnix(payload["iat"]); ok {
		c.IssuedAt = &iat
	}

	return c, nil
}

// RawPayload копирует невалидированный payload как есть.
// Вынесено отдельно: вызывающий может сохранить payload и без
// успешного строгого декодирования.
func RawPayload(payload map[string]any) map[string]any {
	raw := make(map[string]any, len(payload))
	for k, v := range payload {
		raw[k] = v
	}

	return raw
}

func parseUUIDClaim(payload map[string]any, name string) (uuid.UUID, error) {
	v, ok := payload[name].(string)
	if !ok {
		return uuid.Nil, &InvalidClaimError{Claim: name, Value: payload[name]}
	}

	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, &InvalidClaimError{Claim: name, Value: v}
	}

	return id, nil
}

// parseUnix принимает целочисленный timestamp в любом представлении,
// которое даёт JSON-декодер (float64, json.Number, int64).
func parseUnix(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	case int64:
		return time.Unix(t, 0).UTC(), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// audienceList нормализует aud: одиночное значение или список.
func audienceList(v any) []string {
	if s, ok := v.(string); ok {
		return []string{s}
	}

	return stringList(v)
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
