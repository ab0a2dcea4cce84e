package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	notifdomain "vaccine-backend/internal/notification/domain"
	"vaccine-backend/internal/notification/usecase"
	recipientdomain "vaccine-backend/internal/recipient/domain"
)

// RecordStore is the slice of the delivery log the scheduler needs.
type RecordStore interface {
	Get(ctx context.Context, id string) (notifdomain.Notification, error)
	FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]notifdomain.Notification, error)
	Complete(ctx context.Context, id string, status notifdomain.Status) (bool, error)
}

// Processor advances one due scheduled record to a terminal status. The
// poller and the creation hook both funnel through it: an in-process claim
// registry stops the two from double-sending, and the store's
// pending-to-terminal transition arbitrates anything the registry cannot see.
type Processor struct {
	sender  usecase.SenderUsecase
	records RecordStore
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewProcessor(sender usecase.SenderUsecase, records RecordStore, logger *zap.Logger) *Processor {
	return &Processor{
		sender:   sender,
		records:  records,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

func (p *Processor) claim(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[id]; busy {
		return false
	}
	p.inFlight[id] = struct{}{}
	return true
}

func (p *Processor) release(id string) {
	p.mu.Lock()
	delete(p.inFlight, id)
	p.mu.Unlock()
}

// Process sends the notification and records the terminal status exactly once
// per claim. A record another processor is already working on is skipped
// silently.
func (p *Processor) Process(ctx context.Context, stale notifdomain.Notification) {
	if !p.claim(stale.ID) {
		return
	}
	defer p.release(stale.ID)

	// The snapshot we were handed may predate another processor's completion
	// (hook vs. poller). Re-read and let the status field arbitrate before the
	// push leaves; without this the loser would re-send and only the status
	// write would be suppressed.
	n, err := p.records.Get(ctx, stale.ID)
	if err != nil {
		p.logger.Error("Failed to re-read scheduled record, leaving it pending",
			zap.String("notification", stale.ID),
			zap.Error(err),
		)
		return
	}
	if n.Status != notifdomain.StatusPending {
		p.logger.Info("Scheduled record was already completed elsewhere",
			zap.String("notification", n.ID))
		return
	}

	role, err := recipientdomain.ParseRole(n.RecipientRole)
	if err != nil {
		p.logger.Error("Scheduled record has invalid recipient role",
			zap.String("notification", n.ID),
			zap.String("role", n.RecipientRole),
		)
		p.finish(ctx, n.ID, notifdomain.StatusError)
		return
	}

	payload := make(map[string]interface{}, len(n.Payload))
	for k, v := range n.Payload {
		payload[k] = v
	}

	outcome, sendErr := p.sender.Send(ctx, role, n.RecipientID, n.Title, n.Body, n.Type, payload)

	var terminal notifdomain.Status
	switch outcome {
	case usecase.OutcomeDelivered:
		terminal = notifdomain.StatusDelivered
	case usecase.OutcomeSkipped:
		// Unreachable recipient: nothing was attempted and nothing will be
		// without a new token, so the record still terminates.
		terminal = notifdomain.StatusFailed
	default:
		terminal = notifdomain.StatusFailed
	}
	if sendErr != nil {
		p.logger.Warn("Scheduled notification send failed",
			zap.String("notification", n.ID),
			zap.String("outcome", outcome.String()),
			zap.Error(sendErr),
		)
	}

	p.finish(ctx, n.ID, terminal)
}

func (p *Processor) finish(ctx context.Context, id string, status notifdomain.Status) {
	claimed, err := p.records.Complete(ctx, id, status)
	if err != nil {
		p.logger.Error("Failed to complete scheduled record",
			zap.String("notification", id),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return
	}
	if !claimed {
		p.logger.Info("Scheduled record was already completed elsewhere",
			zap.String("notification", id))
		return
	}
	p.logger.Info("Scheduled record completed",
		zap.String("notification", id),
		zap.String("status", string(status)),
	)
}
