package watcher

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	notifdomain "vaccine-backend/internal/notification/domain"
)

// ScheduledProcessor is implemented by the scheduler; the hook and the poller
// share it so a record is claimed at most once within the process.
type ScheduledProcessor interface {
	Process(ctx context.Context, n notifdomain.Notification)
}

// ScheduledHook catches scheduled notification records that are already due
// when they are created, instead of letting them wait for the next poll tick.
type ScheduledHook struct {
	client    *firestore.Client
	processor ScheduledProcessor
	logger    *zap.Logger
}

func NewScheduledHook(client *firestore.Client, processor ScheduledProcessor, logger *zap.Logger) *ScheduledHook {
	return &ScheduledHook{
		client:    client,
		processor: processor,
		logger:    logger,
	}
}

// Start consumes the notifications change feed until ctx is done.
func (w *ScheduledHook) Start(ctx context.Context) {
	w.logger.Info("Watching notifications collection for due scheduled records")
	listen(ctx, w.client, "notifications", w.logger, func(ctx context.Context, kind firestore.DocumentChangeKind, doc *firestore.DocumentSnapshot, initial bool) {
		if kind != firestore.DocumentAdded || initial {
			return
		}

		var n notifdomain.Notification
		if err := doc.DataTo(&n); err != nil {
			w.logger.Error("Failed to decode notification document", zap.String("id", doc.Ref.ID), zap.Error(err))
			return
		}
		n.ID = doc.Ref.ID
		w.HandleCreated(ctx, n)
	})
}

// HandleCreated routes one freshly created record. Immediate-send log entries
// and already-completed records are ignored; a scheduled record not yet due is
// left to the poller.
func (w *ScheduledHook) HandleCreated(ctx context.Context, n notifdomain.Notification) {
	if !n.IsScheduled || n.Status != notifdomain.StatusPending {
		return
	}
	if n.ScheduledTime.After(time.Now()) {
		return
	}

	w.logger.Info("Scheduled record already due at creation, processing immediately",
		zap.String("notification", n.ID))
	w.processor.Process(ctx, n)
}
