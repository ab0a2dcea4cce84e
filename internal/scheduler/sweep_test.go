package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apptdomain "vaccine-backend/internal/appointment/domain"
	"vaccine-backend/internal/notification/usecase"
	recipientdomain "vaccine-backend/internal/recipient/domain"
)

type fakeLister struct {
	appointments []apptdomain.Appointment
}

func (l *fakeLister) ListApproved(_ context.Context) ([]apptdomain.Appointment, error) {
	return l.appointments, nil
}

func approvedAppointment(id, email, date string) apptdomain.Appointment {
	return apptdomain.Appointment{
		ID:              id,
		ChildName:       "Avi",
		ParentEmail:     email,
		VaccineName:     "MMR",
		AppointmentDate: date,
		Status:          apptdomain.AppointmentApproved,
	}
}

func TestSweepRemindsExactlyTomorrow(t *testing.T) {
	now := time.Date(2026, 9, 14, 8, 0, 0, 0, time.Local)

	lister := &fakeLister{appointments: []apptdomain.Appointment{
		approvedAppointment("today", "a@x.com", "14/09/2026"),
		approvedAppointment("tomorrow", "b@x.com", "15/09/2026"),
		approvedAppointment("in-two-days", "c@x.com", "16/09/2026"),
	}}
	sender := &fakeSender{outcome: usecase.OutcomeDelivered}
	sweep := NewReminderSweep(lister, sender, 8, zap.NewNop())

	sweep.RunOnce(context.Background(), now)

	calls := sender.sent()
	require.Len(t, calls, 1)
	assert.Equal(t, recipientdomain.RoleParent, calls[0].Role)
	assert.Equal(t, "b@x.com", calls[0].ID)
	assert.Equal(t, "reminder", calls[0].Type)
}

func TestSweepSkipsBadDateAndMissingEmail(t *testing.T) {
	now := time.Date(2026, 9, 14, 8, 0, 0, 0, time.Local)

	lister := &fakeLister{appointments: []apptdomain.Appointment{
		approvedAppointment("bad-date", "a@x.com", "not-a-date"),
		approvedAppointment("no-email", "", "15/09/2026"),
		approvedAppointment("ok", "b@x.com", "15/09/2026"),
	}}
	sender := &fakeSender{outcome: usecase.OutcomeDelivered}
	sweep := NewReminderSweep(lister, sender, 8, zap.NewNop())

	sweep.RunOnce(context.Background(), now)

	calls := sender.sent()
	require.Len(t, calls, 1, "bad documents must be skipped, not abort the sweep")
	assert.Equal(t, "b@x.com", calls[0].ID)
}

func TestNextFire(t *testing.T) {
	before := time.Date(2026, 9, 14, 6, 30, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 9, 14, 8, 0, 0, 0, time.Local), nextFire(before, 8))

	after := time.Date(2026, 9, 14, 9, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 9, 15, 8, 0, 0, 0, time.Local), nextFire(after, 8))

	exactly := time.Date(2026, 9, 14, 8, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 9, 15, 8, 0, 0, 0, time.Local), nextFire(exactly, 8))
}
