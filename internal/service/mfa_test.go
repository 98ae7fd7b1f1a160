package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bizhub-platform/auth-service/internal/models"
	"github.com/bizhub-platform/auth-service/internal/storage"
	"github.com/bizhub-platform/auth-service/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// totpCode вычисляет действующий код для секрета на текущем шаге времени
// (независимая реализация RFC 6238 для проверки движка).
func totpCode(t *testing.T, secret string) string {
	t.Helper()

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	require.NoError(t, err)

	counter := uint64(time.Now().Unix() / 30)
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%06d", bin%1_000_000)
}

func strptr(s string) *string { return &s }

func TestBeginMFAEnrollment(t *testing.T) {
	t.Run("first enrollment", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		uid := uuid.New()
		var savedSecret string

		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).Return(nil, storage.ErrNotFound)
		mockSt.EXPECT().UpsertPendingMFASecret(gomock.Any(), uid, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, secret string) error {
				savedSecret = secret
				return nil
			})

		enr, err := svc.BeginMFAEnrollment(context.Background(), uid, "user@example.com")
		require.NoError(t, err)
		require.Len(t, enr.Secret, 32)
		require.Equal(t, savedSecret, enr.Secret)
		require.False(t, enr.AlreadyEnrolled)
		require.Contains(t, enr.ProvisioningURI, "otpauth://totp/")
		require.Contains(t, enr.ProvisioningURI, "secret="+enr.Secret)
	})

	t.Run("re-enrollment keeps confirmed factor", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		uid := uuid.New()
		enrolledAt := time.Now().UTC().Add(-time.Hour)
		existing := &models.MFASecret{
			UserID:     uid,
			Confirmed:  strptr("OLDSECRET234567"),
			EnrolledAt: &enrolledAt,
		}

		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).Return(existing, nil)
		mockSt.EXPECT().UpsertPendingMFASecret(gomock.Any(), uid, gomock.Any()).Return(nil)

		enr, err := svc.BeginMFAEnrollment(context.Background(), uid, "user@example.com")
		require.NoError(t, err)
		require.True(t, enr.AlreadyEnrolled)
		require.NotEqual(t, "OLDSECRET234567", enr.Secret)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		uid := uuid.New()
		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).Return(nil, errors.New("db down"))

		_, err := svc.BeginMFAEnrollment(context.Background(), uid, "user@example.com")
		require.Error(t, err)
	})
}

func TestVerifyMFAEnrollment(t *testing.T) {
	uid := uuid.New()

	t.Run("not started", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).Return(nil, storage.ErrNotFound)

		err := svc.VerifyMFAEnrollment(context.Background(), uid, "123456")
		require.ErrorIs(t, err, ErrMFAEnrollmentNotStarted)
	})

	t.Run("no pending secret", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).
			Return(&models.MFASecret{UserID: uid, Confirmed: strptr("SECRET")}, nil)

		err := svc.VerifyMFAEnrollment(context.Background(), uid, "123456")
		require.ErrorIs(t, err, ErrMFAEnrollmentNotStarted)
	})

	t.Run("wrong code", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).
			Return(&models.MFASecret{UserID: uid, Pending: &secret}, nil)

		err := svc.VerifyMFAEnrollment(context.Background(), uid, "000000")
		require.ErrorIs(t, err, ErrMFACodeInvalid)
	})

	t.Run("valid code confirms", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).
			Return(&models.MFASecret{UserID: uid, Pending: &secret}, nil)
		mockSt.EXPECT().ConfirmMFASecret(gomock.Any(), uid, gomock.Any()).Return(nil)

		err := svc.VerifyMFAEnrollment(context.Background(), uid, totpCode(t, secret))
		require.NoError(t, err)
	})

	t.Run("code with separators accepted", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).
			Return(&models.MFASecret{UserID: uid, Pending: &secret}, nil)
		mockSt.EXPECT().ConfirmMFASecret(gomock.Any(), uid, gomock.Any()).Return(nil)

		code := totpCode(t, secret)
		spaced := code[:3] + " " + code[3:]
		require.NoError(t, svc.VerifyMFAEnrollment(context.Background(), uid, spaced))
	})
}

func TestVerifyMFAChallenge(t *testing.T) {
	uid := uuid.New()

	t.Run("not enrolled", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).Return(nil, storage.ErrNotFound)

		err := svc.VerifyMFAChallenge(context.Background(), uid, "123456")
		require.ErrorIs(t, err, ErrMFANotEnrolled)
	})

	t.Run("pending only is not enrolled", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).
			Return(&models.MFASecret{UserID: uid, Pending: strptr("SECRET")}, nil)

		err := svc.VerifyMFAChallenge(context.Background(), uid, "123456")
		require.ErrorIs(t, err, ErrMFANotEnrolled)
	})

	t.Run("valid code passes", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).
			Return(&models.MFASecret{UserID: uid, Confirmed: &secret}, nil)

		require.NoError(t, svc.VerifyMFAChallenge(context.Background(), uid, totpCode(t, secret)))
	})

	t.Run("wrong code", func(t *testing.T) {
		svc, mockSt, ctrl := newServiceWithMock(t)
		defer ctrl.Finish()

		secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
		mockSt.EXPECT().MFASecretByUserID(gomock.Any(), uid).
			Return(&models.MFASecret{UserID: uid, Confirmed: &secret}, nil)

		err := svc.VerifyMFAChallenge(context.Background(), uid, "000000")
		require.ErrorIs(t, err, ErrMFACodeInvalid)
	})
}

func TestMFAObligatory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockSt := mocks.NewMockStorage(ctrl)
	mockSt.EXPECT().ActiveSigningKeys(gomock.Any()).Return(nil, nil)

	cfg := testAuthCfg(t)
	cfg.MFARequiredRoles = []string{"admin", "owner"}
	exemptTenant := uuid.New()
	cfg.MFAExemptTenants = []string{exemptTenant.String()}

	svc, err := New(context.Background(), mockSt, cfg)
	require.NoError(t, err)

	enrolled := &models.MFASecret{Confirmed: strptr("SECRET")}
	notEnrolled := &models.MFASecret{}

	tests := []struct {
		name   string
		role   string
		tenant uuid.UUID
		sec    *models.MFASecret
		want   bool
	}{
		{"enrolled factor always checked", "viewer", exemptTenant, enrolled, true},
		{"required role", "admin", uuid.New(), notEnrolled, true},
		{"required role exempt tenant", "admin", exemptTenant, notEnrolled, false},
		{"role not required", "viewer", uuid.New(), notEnrolled, false},
		{"nil secret treated as not enrolled", "viewer", uuid.New(), nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, svc.MFAObligatory(tc.role, tc.tenant, tc.sec))
		})
	}
}
