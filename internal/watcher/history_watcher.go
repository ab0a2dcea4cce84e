package watcher

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	apptdomain "vaccine-backend/internal/appointment/domain"
	"vaccine-backend/internal/notification/usecase"
	recipientdomain "vaccine-backend/internal/recipient/domain"
)

// HistoryWatcher notifies the parent when a hospital writes a completed
// vaccination entry.
type HistoryWatcher struct {
	client *firestore.Client
	sender usecase.SenderUsecase
	logger *zap.Logger
}

func NewHistoryWatcher(client *firestore.Client, sender usecase.SenderUsecase, logger *zap.Logger) *HistoryWatcher {
	return &HistoryWatcher{
		client: client,
		sender: sender,
		logger: logger,
	}
}

// Start consumes the vaccination_history change feed until ctx is done.
func (w *HistoryWatcher) Start(ctx context.Context) {
	w.logger.Info("Watching vaccination_history collection")
	listen(ctx, w.client, "vaccination_history", w.logger, func(ctx context.Context, kind firestore.DocumentChangeKind, doc *firestore.DocumentSnapshot, initial bool) {
		if kind != firestore.DocumentAdded || initial {
			return
		}

		var h apptdomain.VaccinationHistory
		if err := doc.DataTo(&h); err != nil {
			w.logger.Error("Failed to decode vaccination history document", zap.String("id", doc.Ref.ID), zap.Error(err))
			return
		}
		h.ID = doc.Ref.ID
		w.HandleAdded(ctx, h)
	})
}

// HandleAdded fires the parent notification for one history entry. Hospitals
// sometimes write entries without a parent email; those are skipped, not
// errors.
func (w *HistoryWatcher) HandleAdded(ctx context.Context, h apptdomain.VaccinationHistory) {
	if strings.TrimSpace(h.ParentEmail) == "" {
		w.logger.Warn("Vaccination history entry has no parentEmail, skipping",
			zap.String("history", h.ID))
		return
	}

	childName := h.ChildName
	if childName == "" {
		childName = "Your child"
	}
	vaccineName := h.VaccineName
	if vaccineName == "" {
		vaccineName = "a vaccine"
	}

	_, err := w.sender.Send(ctx, recipientdomain.RoleParent, h.ParentEmail,
		"Vaccine Completed!",
		fmt.Sprintf("%s's %s vaccine has been marked as completed.", childName, vaccineName),
		"completed_appointment",
		map[string]interface{}{
			"historyId":   h.ID,
			"childName":   childName,
			"vaccineName": vaccineName,
		},
	)
	if err != nil {
		w.logger.Error("Failed to notify parent of completed vaccine",
			zap.String("history", h.ID),
			zap.String("parent", h.ParentEmail),
			zap.Error(err),
		)
	}
}
