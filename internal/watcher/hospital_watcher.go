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

// HospitalWatcher notifies the admin when a hospital registers and is awaiting
// approval.
type HospitalWatcher struct {
	client  *firestore.Client
	sender  usecase.SenderUsecase
	adminID string
	logger  *zap.Logger
}

func NewHospitalWatcher(client *firestore.Client, sender usecase.SenderUsecase, adminID string, logger *zap.Logger) *HospitalWatcher {
	return &HospitalWatcher{
		client:  client,
		sender:  sender,
		adminID: adminID,
		logger:  logger,
	}
}

// Start consumes the hospitals change feed until ctx is done.
func (w *HospitalWatcher) Start(ctx context.Context) {
	w.logger.Info("Watching hospitals collection for new registrations")
	listen(ctx, w.client, "hospitals", w.logger, func(ctx context.Context, kind firestore.DocumentChangeKind, doc *firestore.DocumentSnapshot, initial bool) {
		if kind != firestore.DocumentAdded || initial {
			return
		}

		var h apptdomain.Hospital
		if err := doc.DataTo(&h); err != nil {
			w.logger.Error("Failed to decode hospital document", zap.String("id", doc.Ref.ID), zap.Error(err))
			return
		}
		h.ID = doc.Ref.ID
		w.HandleRegistered(ctx, h)
	})
}

// HandleRegistered fires the admin notification for one newly created
// hospital document. Creation fires once, so no dedup is needed here.
func (w *HospitalWatcher) HandleRegistered(ctx context.Context, h apptdomain.Hospital) {
	if h.Status != apptdomain.HospitalPending {
		return
	}

	name := h.Name
	if name == "" {
		name = "A new hospital"
	}

	_, err := w.sender.Send(ctx, recipientdomain.RoleAdmin, w.adminID,
		"New Hospital Registration!",
		fmt.Sprintf("%s has registered and is awaiting approval.", name),
		"new_hospital",
		map[string]interface{}{
			"hospitalName": name,
			"id":           h.ID,
		},
	)
	if err != nil {
		w.logger.Error("Failed to notify admin of new hospital",
			zap.String("hospital", h.ID),
			zap.Error(err),
		)
	}
}
