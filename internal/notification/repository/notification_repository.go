package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"vaccine-backend/internal/notification/domain"
)

const collectionName = "notifications"

// NotificationRepository is the durable delivery log and scheduled queue.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// Get returns the current state of one record. Processors re-read through
	// it before sending, so a record completed elsewhere is seen as such.
	Get(ctx context.Context, id string) (domain.Notification, error)
	// FindDueScheduled returns at most limit scheduled records still pending
	// whose scheduledTime has passed.
	FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]domain.Notification, error)
	// Complete advances a scheduled record from pending to the given terminal
	// status, stamping deliveredAt on success and incrementing
	// processingAttempts. Returns false without writing when the record is no
	// longer pending: the pending->terminal transition is the mutual-exclusion
	// gate between the poller and the creation hook.
	Complete(ctx context.Context, id string, status domain.Status) (bool, error)
}

type notificationRepository struct {
	client *firestore.Client
}

// NewNotificationRepository creates a Firestore-backed delivery log.
func NewNotificationRepository(client *firestore.Client) NotificationRepository {
	return &notificationRepository{client: client}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := r.client.Collection(collectionName).Doc(n.ID).Set(ctx, n)
	if err != nil {
		return fmt.Errorf("create notification %s: %w", n.ID, err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id string) (domain.Notification, error) {
	snap, err := r.client.Collection(collectionName).Doc(id).Get(ctx)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("get notification %s: %w", id, err)
	}

	var n domain.Notification
	if err := snap.DataTo(&n); err != nil {
		return domain.Notification{}, fmt.Errorf("decode notification %s: %w", id, err)
	}
	n.ID = snap.Ref.ID
	return n, nil
}

func (r *notificationRepository) FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]domain.Notification, error) {
	iter := r.client.Collection(collectionName).
		Where("isScheduled", "==", true).
		Where("status", "==", string(domain.StatusPending)).
		Where("scheduledTime", "<=", now).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var due []domain.Notification
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query due scheduled notifications: %w", err)
		}

		var n domain.Notification
		if err := doc.DataTo(&n); err != nil {
			return nil, fmt.Errorf("decode notification %s: %w", doc.Ref.ID, err)
		}
		n.ID = doc.Ref.ID
		due = append(due, n)
	}
	return due, nil
}

func (r *notificationRepository) Complete(ctx context.Context, id string, status domain.Status) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("complete notification %s: %q is not a terminal status", id, status)
	}

	ref := r.client.Collection(collectionName).Doc(id)
	claimed := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var current domain.Notification
		if err := snap.DataTo(&current); err != nil {
			return err
		}
		if current.Status != domain.StatusPending {
			// Another processor won the claim; skip silently.
			return nil
		}

		updates := []firestore.Update{
			{Path: "status", Value: string(status)},
			{Path: "processingAttempts", Value: current.ProcessingAttempts + 1},
		}
		if status == domain.StatusDelivered {
			updates = append(updates, firestore.Update{Path: "deliveredAt", Value: time.Now()})
		}
		if err := tx.Update(ref, updates); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("complete notification %s: %w", id, err)
	}
	return claimed, nil
}
