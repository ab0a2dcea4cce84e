package watcher

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	apptdomain "vaccine-backend/internal/appointment/domain"
	"vaccine-backend/internal/notification/usecase"
	recipientdomain "vaccine-backend/internal/recipient/domain"
)

// AppointmentWatcher reacts to the appointments change feed: creations notify
// the hospital, status transitions notify role-specific recipients. Transition
// detection is edge-based via the StatusTracker, and modifications for the
// same appointment id are serialized so rapid successive changes cannot
// reorder the read-compare-notify sequence.
type AppointmentWatcher struct {
	client  *firestore.Client
	sender  usecase.SenderUsecase
	tracker StatusTracker
	exec    *KeyedExecutor
	logger  *zap.Logger
}

func NewAppointmentWatcher(client *firestore.Client, sender usecase.SenderUsecase, tracker StatusTracker, logger *zap.Logger) *AppointmentWatcher {
	return &AppointmentWatcher{
		client:  client,
		sender:  sender,
		tracker: tracker,
		exec:    NewKeyedExecutor(),
		logger:  logger,
	}
}

// Start consumes the appointments change feed until ctx is done.
func (w *AppointmentWatcher) Start(ctx context.Context) {
	w.logger.Info("Watching appointments collection")
	listen(ctx, w.client, "appointments", w.logger, func(ctx context.Context, kind firestore.DocumentChangeKind, doc *firestore.DocumentSnapshot, initial bool) {
		var a apptdomain.Appointment
		if err := doc.DataTo(&a); err != nil {
			w.logger.Error("Failed to decode appointment document", zap.String("id", doc.Ref.ID), zap.Error(err))
			return
		}
		a.ID = doc.Ref.ID

		switch kind {
		case firestore.DocumentAdded:
			if initial {
				return
			}
			w.HandleCreated(ctx, a)
		case firestore.DocumentModified:
			appt := a
			w.exec.Do(appt.ID, func() {
				w.HandleModified(ctx, appt)
			})
		}
	})
}

// HandleCreated notifies the hospital about a freshly booked appointment.
func (w *AppointmentWatcher) HandleCreated(ctx context.Context, a apptdomain.Appointment) {
	if a.Status != apptdomain.AppointmentPending {
		return
	}
	if a.HospitalID == "" {
		w.logger.Warn("New appointment has no hospitalId, skipping hospital notification",
			zap.String("appointment", a.ID))
		return
	}

	childName := a.ChildName
	if childName == "" {
		childName = "a child"
	}

	_, err := w.sender.Send(ctx, recipientdomain.RoleHospital, a.HospitalID,
		"New Appointment Request!",
		fmt.Sprintf("A new appointment for %s has been scheduled by %s.", childName, a.ParentEmail),
		"new_appointment",
		map[string]interface{}{
			"appointmentId": a.ID,
			"childName":     childName,
			"parentEmail":   a.ParentEmail,
		},
	)
	if err != nil {
		w.logger.Error("Failed to notify hospital of new appointment",
			zap.String("appointment", a.ID),
			zap.String("hospital", a.HospitalID),
			zap.Error(err),
		)
	}
}

// HandleModified fires notifications only when the observed status differs
// from the last notified one, then records the new status. A tracker read
// failure degrades to "unknown prior", which may re-fire a transition; the
// at-least-once feed makes that preferable to missing one.
func (w *AppointmentWatcher) HandleModified(ctx context.Context, a apptdomain.Appointment) {
	last, err := w.tracker.Last(ctx, a.ID)
	if err != nil {
		w.logger.Error("Failed to read last notified status, treating as unknown",
			zap.String("appointment", a.ID),
			zap.Error(err),
		)
		last = ""
	}
	if a.Status == last {
		return
	}

	w.notifyForStatus(ctx, a)

	if err := w.tracker.Set(ctx, a.ID, a.Status); err != nil {
		w.logger.Error("Failed to persist last notified status",
			zap.String("appointment", a.ID),
			zap.Error(err),
		)
	}
}

// notifyForStatus fires the notifications for the status being entered. Each
// one is independent: a dead parent token must not block the hospital copy.
func (w *AppointmentWatcher) notifyForStatus(ctx context.Context, a apptdomain.Appointment) {
	vaccineName := a.VaccineName
	if vaccineName == "" {
		vaccineName = "a vaccine"
	}
	childName := a.ChildName
	if childName == "" {
		childName = "your child"
	}

	switch a.Status {
	case apptdomain.AppointmentApproved:
		w.notifyParent(ctx, a,
			"Appointment Approved!",
			fmt.Sprintf("Your appointment for %s on %s has been approved.", vaccineName, a.AppointmentDate),
			"approved_appointment",
			map[string]interface{}{
				"appointmentId":   a.ID,
				"vaccineName":     vaccineName,
				"appointmentDate": a.AppointmentDate,
			},
		)

	case apptdomain.AppointmentCompleted:
		w.notifyParent(ctx, a,
			"Vaccine Completed!",
			fmt.Sprintf("%s's %s vaccine has been marked as completed.", childName, vaccineName),
			"completed_appointment",
			map[string]interface{}{
				"appointmentId": a.ID,
				"childName":     childName,
				"vaccineName":   vaccineName,
			},
		)
		if a.HospitalID != "" {
			_, err := w.sender.Send(ctx, recipientdomain.RoleHospital, a.HospitalID,
				"Appointment Completed",
				fmt.Sprintf("The appointment for %s (%s) has been completed.", childName, vaccineName),
				"completed_appointment",
				map[string]interface{}{
					"appointmentId": a.ID,
					"childName":     childName,
					"vaccineName":   vaccineName,
				},
			)
			if err != nil {
				w.logger.Error("Failed to notify hospital of completed appointment",
					zap.String("appointment", a.ID),
					zap.String("hospital", a.HospitalID),
					zap.Error(err),
				)
			}
		}
	}
}

func (w *AppointmentWatcher) notifyParent(ctx context.Context, a apptdomain.Appointment, title, body, msgType string, payload map[string]interface{}) {
	if !a.HasParentEmail() {
		w.logger.Warn("Appointment has no parent email, skipping parent notification",
			zap.String("appointment", a.ID),
			zap.String("status", a.Status),
		)
		return
	}

	_, err := w.sender.Send(ctx, recipientdomain.RoleParent, a.ParentEmail, title, body, msgType, payload)
	if err != nil {
		w.logger.Error("Failed to notify parent of status change",
			zap.String("appointment", a.ID),
			zap.String("parent", a.ParentEmail),
			zap.String("status", a.Status),
			zap.Error(err),
		)
	}
}
