package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"vaccine-backend/internal/appointment/domain"
)

// AppointmentRepository is the read-only view of booking documents used by the
// daily reminder sweep.
type AppointmentRepository interface {
	ListApproved(ctx context.Context) ([]domain.Appointment, error)
}

type appointmentRepository struct {
	client *firestore.Client
}

// NewAppointmentRepository creates a Firestore-backed read-only view.
func NewAppointmentRepository(client *firestore.Client) AppointmentRepository {
	return &appointmentRepository{client: client}
}

func (r *appointmentRepository) ListApproved(ctx context.Context) ([]domain.Appointment, error) {
	iter := r.client.Collection("appointments").
		Where("appointmentStatus", "==", domain.AppointmentApproved).
		Documents(ctx)
	defer iter.Stop()

	var appointments []domain.Appointment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query approved appointments: %w", err)
		}

		var a domain.Appointment
		if err := doc.DataTo(&a); err != nil {
			return nil, fmt.Errorf("decode appointment %s: %w", doc.Ref.ID, err)
		}
		a.ID = doc.Ref.ID
		appointments = append(appointments, a)
	}
	return appointments, nil
}
