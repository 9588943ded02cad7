package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

// Scheduler turns a funnel's shoots into absolute-time workers.
type Scheduler struct {
	Workers WorkerRepositoryInterface
	Now     func() time.Time
}

func NewScheduler(workers WorkerRepositoryInterface) *Scheduler {
	return &Scheduler{
		Workers: workers,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Schedule builds one worker per shoot. Each shoot fires ShootAfter seconds
// after the previous one; the first counts from now + startOffset.
// Nothing is persisted here: the caller stores the batch atomically.
func (s *Scheduler) Schedule(f *entity.Funnel, lead entity.Lead, startOffset time.Duration) []*entity.Worker {
	now := s.Now()
	last := now.Add(startOffset)

	shoots := f.OrderedShoots()
	workers := make([]*entity.Worker, 0, len(shoots))
	for _, shoot := range shoots {
		if shoot.ShootAfter > 0 {
			last = last.Add(time.Duration(shoot.ShootAfter) * time.Second)
		}
		workers = append(workers, entity.NewWorker(f, lead, shoot, last, now))
	}
	return workers
}

// Cancel deletes every pending worker for phone, whatever funnel scheduled it.
func (s *Scheduler) Cancel(ctx context.Context, phone string) (int64, error) {
	return s.Workers.DeleteByPhone(ctx, phone)
}

// CancelInFunnel only deletes the workers fid scheduled for phone.
func (s *Scheduler) CancelInFunnel(ctx context.Context, fid, phone string) (int64, error) {
	return s.Workers.DeleteByFunnelAndPhone(ctx, fid, phone)
}
