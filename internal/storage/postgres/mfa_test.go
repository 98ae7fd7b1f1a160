package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/bizhub-platform/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIntegration_MFASecret_Lifecycle(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, st)

	// До старта enrollment записи нет.
	_, err := st.MFASecretByUserID(ctx, account.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Старт enrollment: появляется pending.
	require.NoError(t, st.UpsertPendingMFASecret(ctx, account.ID, "SECRET-A"))

	sec, err := st.MFASecretByUserID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, sec.Pending)
	require.Equal(t, "SECRET-A", *sec.Pending)
	require.Nil(t, sec.Confirmed)
	require.Nil(t, sec.EnrolledAt)
	require.False(t, sec.Enrolled())

	// Перезапуск enrollment заменяет pending.
	require.NoError(t, st.UpsertPendingMFASecret(ctx, account.ID, "SECRET-B"))
	sec, err = st.MFASecretByUserID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "SECRET-B", *sec.Pending)

	// Подтверждение переносит pending в confirmed.
	now := time.Now().UTC()
	require.NoError(t, st.ConfirmMFASecret(ctx, account.ID, now))

	sec, err = st.MFASecretByUserID(ctx, account.ID)
	require.NoError(t, err)
	require.Nil(t, sec.Pending)
	require.NotNil(t, sec.Confirmed)
	require.Equal(t, "SECRET-B", *sec.Confirmed)
	require.NotNil(t, sec.EnrolledAt)
	require.WithinDuration(t, now, *sec.EnrolledAt, time.Second)
	require.True(t, sec.Enrolled())
}

func TestIntegration_ConfirmMFASecret_WithoutPending(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, st)

	// Записи нет вовсе.
	err := st.ConfirmMFASecret(ctx, account.ID, time.Now().UTC())
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Запись есть, но pending уже подтверждён.
	require.NoError(t, st.UpsertPendingMFASecret(ctx, account.ID, "SECRET"))
	require.NoError(t, st.ConfirmMFASecret(ctx, account.ID, time.Now().UTC()))

	err = st.ConfirmMFASecret(ctx, account.ID, time.Now().UTC())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_ReenrollmentKeepsConfirmed(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, st)

	require.NoError(t, st.UpsertPendingMFASecret(ctx, account.ID, "OLD"))
	require.NoError(t, st.ConfirmMFASecret(ctx, account.ID, time.Now().UTC()))

	// Новый enrollment: confirmed остаётся действующим.
	require.NoError(t, st.UpsertPendingMFASecret(ctx, account.ID, "NEW"))

	sec, err := st.MFASecretByUserID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "NEW", *sec.Pending)
	require.Equal(t, "OLD", *sec.Confirmed)
	require.True(t, sec.Enrolled())
}

func TestIntegration_MFASecret_UnknownUser(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.MFASecretByUserID(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}
