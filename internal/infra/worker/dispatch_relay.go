package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/infra/queue"
)

// DueWorkerClaimer hands due workers to fn and deletes the accepted ones.
type DueWorkerClaimer interface {
	ClaimDue(ctx context.Context, now time.Time, limit int, fn func(*entity.Worker) error) (int, error)
}

type DispatchRecorder interface {
	RecordDispatch(n int)
	RecordIntegrationError(service string)
}

// DispatchRelay moves workers whose performAt has passed onto the dispatch
// queue. A worker is only deleted after its message was published, so a
// crash between the two delivers it again.
type DispatchRelay struct {
	workers      DueWorkerClaimer
	producer     queue.QueueProducerInterface
	metrics      DispatchRecorder
	log          *slog.Logger
	tickInterval time.Duration
	batchSize    int
	now          func() time.Time
}

func NewDispatchRelay(workers DueWorkerClaimer, producer queue.QueueProducerInterface, metrics DispatchRecorder, log *slog.Logger, tick time.Duration, batch int) *DispatchRelay {
	if tick <= 0 {
		tick = 15 * time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &DispatchRelay{
		workers:      workers,
		producer:     producer,
		metrics:      metrics,
		log:          log,
		tickInterval: tick,
		batchSize:    batch,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (r *DispatchRelay) Start(ctx context.Context) {
	r.log.Info("dispatch relay started", "interval", r.tickInterval, "batch", r.batchSize)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	r.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("dispatch relay stopped")
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

// drain claims full batches until the backlog is empty or a publish fails.
func (r *DispatchRelay) drain(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := r.RelayOnce(ctx)
		total += n
		if err != nil || n < r.batchSize {
			break
		}
	}
	if total > 0 {
		r.log.Info("workers dispatched", "count", total)
	}
	return total
}

// RelayOnce publishes at most one batch of due workers.
func (r *DispatchRelay) RelayOnce(ctx context.Context) (int, error) {
	n, err := r.workers.ClaimDue(ctx, r.now(), r.batchSize, func(w *entity.Worker) error {
		return r.producer.PublishDispatch(ctx, queue.NewDispatchPayload(w))
	})
	if n > 0 && r.metrics != nil {
		r.metrics.RecordDispatch(n)
	}
	if err != nil {
		r.log.Error("dispatch relay failed", "err", err, "published", n)
		if r.metrics != nil {
			r.metrics.RecordIntegrationError("dispatch_relay")
		}
	}
	return n, err
}
