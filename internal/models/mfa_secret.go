package models

import (
	"time"

	"github.com/google/uuid"
)

// MFASecret — состояние второго фактора пользователя.
//
// Pending — секрет, выданный при старте enrollment и ещё не подтверждённый кодом.
// Confirmed — действующий секрет; проверяется при входе. При повторном
// enrollment Confirmed сохраняется до подтверждения нового секрета,
// чтобы пользователь не оставался без фактора.
type MFASecret struct {
	UserID     uuid.UUID
	Pending    *string
	Confirmed  *string
	EnrolledAt *time.Time
	UpdatedAt  time.Time
}

// Enrolled сообщает, есть ли у пользователя подтверждённый фактор.
func (m *MFASecret) Enrolled() bool {
	return m != nil && m.Confirmed != nil && *m.Confirmed != ""
}
