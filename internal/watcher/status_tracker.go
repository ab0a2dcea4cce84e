package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusTracker remembers the last appointment status a notification was
// fired for, so modification events can be reduced to edges. Backed by the
// notification_state collection: unlike a process-local map, a restart does
// not forget which transitions were already announced.
type StatusTracker interface {
	// Last returns the last notified status for the appointment, or "" when
	// the appointment has never been seen.
	Last(ctx context.Context, appointmentID string) (string, error)
	Set(ctx context.Context, appointmentID, newStatus string) error
}

type firestoreStatusTracker struct {
	client *firestore.Client
	load   func(ctx context.Context, appointmentID string) (string, error)

	mu    sync.Mutex
	cache map[string]string
}

// NewStatusTracker creates a read-through cached tracker over Firestore.
func NewStatusTracker(client *firestore.Client) StatusTracker {
	t := &firestoreStatusTracker{
		client: client,
		cache:  make(map[string]string),
	}
	t.load = t.loadFromStore
	return t
}

func (t *firestoreStatusTracker) doc(appointmentID string) *firestore.DocumentRef {
	return t.client.Collection("notification_state").Doc(appointmentID)
}

func (t *firestoreStatusTracker) loadFromStore(ctx context.Context, appointmentID string) (string, error) {
	snap, err := t.doc(appointmentID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", fmt.Errorf("read notification state for %s: %w", appointmentID, err)
	}

	last, _ := snap.Data()["lastNotifiedStatus"].(string)
	return last, nil
}

func (t *firestoreStatusTracker) Last(ctx context.Context, appointmentID string) (string, error) {
	t.mu.Lock()
	cached, ok := t.cache[appointmentID]
	t.mu.Unlock()
	if ok {
		return cached, nil
	}

	last, err := t.load(ctx, appointmentID)
	if err != nil {
		return "", err
	}

	// A never-tracked appointment is cached as "" too, so the stream of
	// modification events before the first Set hits the store only once.
	t.mu.Lock()
	t.cache[appointmentID] = last
	t.mu.Unlock()
	return last, nil
}

func (t *firestoreStatusTracker) Set(ctx context.Context, appointmentID, newStatus string) error {
	_, err := t.doc(appointmentID).Set(ctx, map[string]interface{}{
		"lastNotifiedStatus": newStatus,
		"updatedAt":          time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("persist notification state for %s: %w", appointmentID, err)
	}

	t.mu.Lock()
	t.cache[appointmentID] = newStatus
	t.mu.Unlock()
	return nil
}
