package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apptdomain "vaccine-backend/internal/appointment/domain"
	"vaccine-backend/internal/notification/usecase"
	recipientdomain "vaccine-backend/internal/recipient/domain"
)

// AppointmentLister is the read-only booking view the sweep scans.
type AppointmentLister interface {
	ListApproved(ctx context.Context) ([]apptdomain.Appointment, error)
}

// ReminderSweep sends parents a reminder the day before an approved
// appointment. It fires once per calendar day at a fixed local hour.
type ReminderSweep struct {
	appointments AppointmentLister
	sender       usecase.SenderUsecase
	hour         int
	logger       *zap.Logger
}

func NewReminderSweep(appointments AppointmentLister, sender usecase.SenderUsecase, hour int, logger *zap.Logger) *ReminderSweep {
	if hour < 0 || hour > 23 {
		hour = 8
	}
	return &ReminderSweep{
		appointments: appointments,
		sender:       sender,
		hour:         hour,
		logger:       logger,
	}
}

// Start waits for the next firing time, runs the sweep, and repeats until ctx
// is done.
func (s *ReminderSweep) Start(ctx context.Context) {
	s.logger.Info("Starting daily reminder sweep", zap.Int("hour", s.hour))

	for {
		next := nextFire(time.Now(), s.hour)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Daily reminder sweep stopped")
			return
		case <-timer.C:
			s.RunOnce(ctx, time.Now())
		}
	}
}

// nextFire returns the next occurrence of the configured local hour strictly
// after now.
func nextFire(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce scans all approved appointments and reminds parents whose
// appointment date is exactly tomorrow, by calendar date. One malformed
// document never aborts the sweep.
func (s *ReminderSweep) RunOnce(ctx context.Context, now time.Time) {
	target := now.AddDate(0, 0, 1)

	appointments, err := s.appointments.ListApproved(ctx)
	if err != nil {
		s.logger.Error("Reminder sweep failed to list approved appointments", zap.Error(err))
		return
	}
	s.logger.Info("Reminder sweep scanning approved appointments", zap.Int("count", len(appointments)))

	sent := 0
	for _, a := range appointments {
		date, err := a.ParseDate()
		if err != nil {
			s.logger.Warn("Skipping appointment with unparseable date",
				zap.String("appointment", a.ID),
				zap.String("date", a.AppointmentDate),
				zap.Error(err),
			)
			continue
		}
		if !sameCalendarDay(date, target) {
			continue
		}
		if !a.HasParentEmail() {
			s.logger.Warn("Skipping reminder for appointment without parent email",
				zap.String("appointment", a.ID))
			continue
		}

		childName := a.ChildName
		if childName == "" {
			childName = "your child"
		}
		vaccineName := a.VaccineName
		if vaccineName == "" {
			vaccineName = "a vaccine"
		}

		outcome, err := s.sender.Send(ctx, recipientdomain.RoleParent, a.ParentEmail,
			"Appointment Reminder",
			fmt.Sprintf("Your child, %s, has an appointment for %s tomorrow (%s).", childName, vaccineName, a.AppointmentDate),
			"reminder",
			map[string]interface{}{
				"appointmentId":   a.ID,
				"vaccineName":     vaccineName,
				"appointmentDate": a.AppointmentDate,
				"childName":       childName,
			},
		)
		if err != nil {
			s.logger.Error("Failed to send appointment reminder",
				zap.String("appointment", a.ID),
				zap.String("parent", a.ParentEmail),
				zap.Error(err),
			)
			continue
		}
		if outcome == usecase.OutcomeDelivered {
			sent++
		}
	}

	s.logger.Info("Reminder sweep finished", zap.Int("sent", sent))
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
