package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Poller periodically drains due scheduled notification records, batch
// bounded per tick. A tick that is still running when the next one fires is
// not overlapped; the next tick is skipped instead.
type Poller struct {
	records    RecordStore
	processor  *Processor
	interval   time.Duration
	batchSize  int
	logger     *zap.Logger
	inProgress atomic.Bool
}

func NewPoller(records RecordStore, processor *Processor, interval time.Duration, batchSize int, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Poller{
		records:   records,
		processor: processor,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Start runs the poll loop until ctx is done. The first tick fires
// immediately so due records do not wait a full interval after startup.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting scheduled notification poller",
		zap.Duration("interval", p.interval),
		zap.Int("batch_size", p.batchSize),
	)

	p.Tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Tick(ctx)
		case <-ctx.Done():
			p.logger.Info("Scheduled notification poller stopped")
			return
		}
	}
}

// Tick processes one batch of due records.
func (p *Poller) Tick(ctx context.Context) {
	if !p.inProgress.CompareAndSwap(false, true) {
		p.logger.Warn("Previous poll tick still running, skipping this tick")
		return
	}
	defer p.inProgress.Store(false)

	due, err := p.records.FindDueScheduled(ctx, time.Now(), p.batchSize)
	if err != nil {
		p.logger.Error("Failed to query due scheduled notifications", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	p.logger.Info("Processing due scheduled notifications", zap.Int("count", len(due)))
	for _, n := range due {
		p.processor.Process(ctx, n)
	}
}
