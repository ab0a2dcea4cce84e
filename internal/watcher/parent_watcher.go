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

// ParentWatcher notifies the admin when a new family registers.
type ParentWatcher struct {
	client  *firestore.Client
	sender  usecase.SenderUsecase
	adminID string
	logger  *zap.Logger
}

func NewParentWatcher(client *firestore.Client, sender usecase.SenderUsecase, adminID string, logger *zap.Logger) *ParentWatcher {
	return &ParentWatcher{
		client:  client,
		sender:  sender,
		adminID: adminID,
		logger:  logger,
	}
}

// Start consumes the parents change feed until ctx is done.
func (w *ParentWatcher) Start(ctx context.Context) {
	w.logger.Info("Watching parents collection for new registrations")
	listen(ctx, w.client, "parents", w.logger, func(ctx context.Context, kind firestore.DocumentChangeKind, doc *firestore.DocumentSnapshot, initial bool) {
		if kind != firestore.DocumentAdded || initial {
			return
		}

		var p apptdomain.Parent
		if err := doc.DataTo(&p); err != nil {
			w.logger.Error("Failed to decode parent document", zap.String("id", doc.Ref.ID), zap.Error(err))
			return
		}
		p.ID = doc.Ref.ID
		w.HandleRegistered(ctx, p)
	})
}

// HandleRegistered fires the admin notification for one new parent document.
func (w *ParentWatcher) HandleRegistered(ctx context.Context, p apptdomain.Parent) {
	name := p.FullName
	if name == "" {
		name = p.Email
	}
	if name == "" {
		name = p.ID
	}

	_, err := w.sender.Send(ctx, recipientdomain.RoleAdmin, w.adminID,
		"New Family Member Registered!",
		fmt.Sprintf("%s has registered as a new parent.", name),
		"new_family_member",
		map[string]interface{}{
			"parentEmail": p.Email,
			"parentName":  name,
		},
	)
	if err != nil {
		w.logger.Error("Failed to notify admin of new parent",
			zap.String("parent", p.ID),
			zap.Error(err),
		)
	}
}
