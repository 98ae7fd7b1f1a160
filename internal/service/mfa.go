package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bizhub-platform/auth-service/internal/events"
	"github.com/bizhub-platform/auth-service/internal/models"
	"github.com/bizhub-platform/auth-service/internal/pkg/log"
	"github.com/bizhub-platform/auth-service/internal/pkg/redact"
	"github.com/bizhub-platform/auth-service/internal/storage"
	"github.com/bizhub-platform/auth-service/internal/totp"

	"github.com/google/uuid"
)

// MFAEnrollment — результат старта enrollment.
type MFAEnrollment struct {
	// Secret — новый pending-секрет (base32). Показывается пользователю
	// один раз; в логи не попадает.
	Secret string
	// ProvisioningURI — otpauth-URI для приложения-аутентификатора.
	ProvisioningURI string
	// AlreadyEnrolled — у пользователя уже есть подтверждённый фактор.
	// Он продолжает действовать, пока новый секрет не будет подтверждён.
	AlreadyEnrolled bool
}

// BeginMFAEnrollment начинает (или перезапускает) enrollment второго фактора.
// Pending-секрет заменяется; подтверждённый секрет не трогается.
func (s *Service) BeginMFAEnrollment(ctx context.Context, userID uuid.UUID, accountLabel string) (*MFAEnrollment, error) {
	const op = "service.mfa.BeginMFAEnrollment"

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.storage.MFASecretByUserID(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpsertPendingMFASecret(ctx, userID, secret); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publishActivity(ctx, events.Event{
		Type:   events.TypeMFAEnrollStarted,
		UserID: userID,
		At:     time.Now().UTC(),
	})

	log.From(ctx).Debug("mfa_enrollment_started",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.String("account", redact.Email(accountLabel)),
	)

	return &MFAEnrollment{
		Secret:          secret,
		ProvisioningURI: totp.ProvisioningURI(s.cfg.Issuer, accountLabel, secret),
		AlreadyEnrolled: existing.Enrolled(),
	}, nil
}

// VerifyMFAEnrollment подтверждает enrollment кодом из приложения.
// Успех атомарно переносит pending-секрет в confirmed.
func (s *Service) VerifyMFAEnrollment(ctx context.Context, userID uuid.UUID, code string) error {
	const op = "service.mfa.VerifyMFAEnrollment"

	sec, err := s.storage.MFASecretByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrMFAEnrollmentNotStarted)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if sec.Pending == nil || *sec.Pending == "" {
		return fmt.Errorf("%s: %w", op, ErrMFAEnrollmentNotStarted)
	}

	if !s.checkCode(ctx, userID, *sec.Pending, code) {
		return fmt.Errorf("%s: %w", op, ErrMFACodeInvalid)
	}

	if err := s.storage.ConfirmMFASecret(ctx, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publishActivity(ctx, events.Event{
		Type:   events.TypeMFAEnrolled,
		UserID: userID,
		At:     time.Now().UTC(),
	})

	return nil
}

// VerifyMFAChallenge проверяет код входа против подтверждённого секрета.
func (s *Service) VerifyMFAChallenge(ctx context.Context, userID uuid.UUID, code string) error {
	const op = "service.mfa.VerifyMFAChallenge"

	sec, err := s.storage.MFASecretByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrMFANotEnrolled)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !sec.Enrolled() {
		return fmt.Errorf("%s: %w", op, ErrMFANotEnrolled)
	}

	if !s.checkCode(ctx, userID, *sec.Confirmed, code) {
		return fmt.Errorf("%s: %w", op, ErrMFACodeInvalid)
	}

	s.publishActivity(ctx, events.Event{
		Type:   events.TypeMFAChallengePassed,
		UserID: userID,
		At:     time.Now().UTC(),
	})

	return nil
}

// MFAObligatory решает, обязателен ли второй фактор для этой пары
// роль/арендатор. Подтверждённый фактор проверяется всегда; арендаторы
// из списка исключений освобождены только от принудительного включения.
func (s *Service) MFAObligatory(role string, tenantID uuid.UUID, sec *models.MFASecret) bool {
	if sec.Enrolled() {
		return true
	}

	if !slices.Contains(s.cfg.MFARequiredRoles, role) {
		return false
	}

	return !slices.Contains(s.cfg.MFAExemptTenants, tenantID.String())
}

// checkCode нормализует пользовательский ввод и проверяет его против
// секрета; неуспех фиксируется событием активности.
func (s *Service) checkCode(ctx context.Context, userID uuid.UUID, secret, code string) bool {
	const op = "service.mfa.checkCode"

	norm, ok := totp.NormalizeCode(code)
	if ok && totp.Verify(secret, norm) {
		return true
	}

	log.From(ctx).Warn("mfa_code_rejected",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)
	s.publishActivity(ctx, events.Event{
		Type:   events.TypeMFAVerifyFailed,
		UserID: userID,
		At:     time.Now().UTC(),
	})

	return false
}
