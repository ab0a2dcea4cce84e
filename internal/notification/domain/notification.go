package domain

import "time"

// Status is the lifecycle state of a scheduled notification record. Immediate
// sends are logged post-hoc and never revisit their status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusError     Status = "error"
)

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusFailed || s == StatusError
}

// Notification is one entry of the delivery log, stored in the
// "notifications" collection. Scheduled entries are pre-created with
// IsScheduled=true and Status=pending, then advanced exactly once to a
// terminal status by whichever processor claims them first.
type Notification struct {
	ID                 string            `firestore:"-" json:"id"`
	RecipientRole      string            `firestore:"recipientRole" json:"recipientRole"`
	RecipientID        string            `firestore:"recipientId" json:"recipientId"`
	Title              string            `firestore:"title" json:"title"`
	Body               string            `firestore:"body" json:"body"`
	Type               string            `firestore:"type" json:"type"`
	Payload            map[string]string `firestore:"payload,omitempty" json:"payload,omitempty"`
	IsRead             bool              `firestore:"isRead" json:"isRead"`
	CreatedAt          time.Time         `firestore:"createdAt" json:"createdAt"`
	IsScheduled        bool              `firestore:"isScheduled" json:"isScheduled"`
	ScheduledTime      time.Time         `firestore:"scheduledTime,omitempty" json:"scheduledTime,omitempty"`
	Status             Status            `firestore:"status,omitempty" json:"status,omitempty"`
	DeliveredAt        *time.Time        `firestore:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	ProcessingAttempts int               `firestore:"processingAttempts" json:"processingAttempts"`
}
