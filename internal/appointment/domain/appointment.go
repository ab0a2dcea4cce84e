package domain

import (
	"fmt"
	"strings"
	"time"
)

// Appointment statuses as written by the external booking subsystem. This
// service only reads them.
const (
	AppointmentPending   = "pending"
	AppointmentApproved  = "approved"
	AppointmentCompleted = "completed"
)

// AppointmentDateLayout is the display format the booking clients write,
// dd/MM/yyyy.
const AppointmentDateLayout = "02/01/2006"

// Appointment is the notification-relevant projection of a booking document.
// The booking subsystem owns these documents; this service never writes them.
type Appointment struct {
	ID              string `firestore:"-" json:"id"`
	ChildName       string `firestore:"name" json:"name"`
	HospitalID      string `firestore:"hospitalId" json:"hospitalId"`
	HospitalName    string `firestore:"hospitalName,omitempty" json:"hospitalName,omitempty"`
	ParentEmail     string `firestore:"email" json:"email"`
	VaccineName     string `firestore:"vaccineName" json:"vaccineName"`
	AppointmentDate string `firestore:"appointmentDate" json:"appointmentDate"`
	AppointmentTime string `firestore:"appointmentTime,omitempty" json:"appointmentTime,omitempty"`
	Status          string `firestore:"appointmentStatus" json:"appointmentStatus"`
}

// ParseDate parses the display date field. Booking clients occasionally write
// garbage here, so callers must treat an error as skip-this-document.
func (a Appointment) ParseDate() (time.Time, error) {
	parsed, err := time.ParseInLocation(AppointmentDateLayout, strings.TrimSpace(a.AppointmentDate), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse appointment date %q: %w", a.AppointmentDate, err)
	}
	return parsed, nil
}

// HasParentEmail reports whether the parent recipient is addressable at all.
func (a Appointment) HasParentEmail() bool {
	return strings.TrimSpace(a.ParentEmail) != ""
}
