package watcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apptdomain "vaccine-backend/internal/appointment/domain"
	"vaccine-backend/internal/notification/usecase"
	recipientdomain "vaccine-backend/internal/recipient/domain"
)

func TestHistoryAddedNotifiesParent(t *testing.T) {
	sender := &fakeSender{outcome: usecase.OutcomeDelivered}
	w := NewHistoryWatcher(nil, sender, zap.NewNop())

	w.HandleAdded(context.Background(), apptdomain.VaccinationHistory{
		ID:          "h1",
		ParentEmail: "a@x.com",
		ChildName:   "Avi",
		VaccineName: "MMR",
	})

	calls := sender.sent()
	require.Len(t, calls, 1)
	assert.Equal(t, recipientdomain.RoleParent, calls[0].Role)
	assert.Equal(t, "a@x.com", calls[0].ID)
	assert.Equal(t, "completed_appointment", calls[0].Type)
}

func TestHistoryWithoutParentEmailIsSkipped(t *testing.T) {
	sender := &fakeSender{outcome: usecase.OutcomeDelivered}
	w := NewHistoryWatcher(nil, sender, zap.NewNop())

	w.HandleAdded(context.Background(), apptdomain.VaccinationHistory{ID: "h1", ParentEmail: "   "})

	assert.Empty(t, sender.sent())
}

func TestHospitalRegistrationNotifiesAdmin(t *testing.T) {
	sender := &fakeSender{outcome: usecase.OutcomeDelivered}
	w := NewHospitalWatcher(nil, sender, "admin@example.com", zap.NewNop())

	w.HandleRegistered(context.Background(), apptdomain.Hospital{
		ID:     "hosp-1",
		Name:   "City Clinic",
		Status: apptdomain.HospitalPending,
	})

	calls := sender.sent()
	require.Len(t, calls, 1)
	assert.Equal(t, recipientdomain.RoleAdmin, calls[0].Role)
	assert.Equal(t, "admin@example.com", calls[0].ID)
	assert.Equal(t, "new_hospital", calls[0].Type)
}

func TestNonPendingHospitalRegistrationIgnored(t *testing.T) {
	sender := &fakeSender{outcome: usecase.OutcomeDelivered}
	w := NewHospitalWatcher(nil, sender, "admin@example.com", zap.NewNop())

	w.HandleRegistered(context.Background(), apptdomain.Hospital{ID: "hosp-1", Status: "approved"})

	assert.Empty(t, sender.sent())
}

func TestParentRegistrationNotifiesAdmin(t *testing.T) {
	sender := &fakeSender{outcome: usecase.OutcomeDelivered}
	w := NewParentWatcher(nil, sender, "admin@example.com", zap.NewNop())

	w.HandleRegistered(context.Background(), apptdomain.Parent{
		ID:       "a@x.com",
		Email:    "a@x.com",
		FullName: "Alex",
	})

	calls := sender.sent()
	require.Len(t, calls, 1)
	assert.Equal(t, recipientdomain.RoleAdmin, calls[0].Role)
	assert.Equal(t, "new_family_member", calls[0].Type)
}
