package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/gateway"
	"github.com/xavierca1/ligue-funnels/internal/logger"
)

const multiShotConcurrency = 8

// MultiShotUseCase enrolls a batch of leads by hand, spacing each lead's
// first shoot by Delay seconds.
type MultiShotUseCase struct {
	FunnelRepo FunnelRepositoryInterface
	UserRepo   UserRepositoryInterface
	Scheduler  *Scheduler
	Metrics    MetricsRecorder
}

func NewMultiShotUseCase(funnelRepo FunnelRepositoryInterface, userRepo UserRepositoryInterface, scheduler *Scheduler, metrics MetricsRecorder) *MultiShotUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &MultiShotUseCase{
		FunnelRepo: funnelRepo,
		UserRepo:   userRepo,
		Scheduler:  scheduler,
		Metrics:    metrics,
	}
}

func (uc *MultiShotUseCase) Execute(ctx context.Context, input MultiShotInput) (*MultiShotOutput, error) {
	if len(input.Leads) == 0 {
		return nil, invalidBody("leads is required")
	}
	if input.Delay < 0 {
		return nil, invalidBody("delay must not be negative")
	}

	funnel, err := findOwnedFunnel(ctx, uc.UserRepo, uc.FunnelRepo, input.UID, input.FID)
	if err != nil {
		return nil, err
	}
	if funnel.IsSuspended() {
		return nil, &DomainError{Code: CodeFunnelSuspended, Message: OutcomeSuspended.Message()}
	}

	out := &MultiShotOutput{}
	leads := make([]entity.Lead, 0, len(input.Leads))
	seen := make(map[string]struct{}, len(input.Leads))
	for _, l := range input.Leads {
		phone, err := gateway.NormalizePhone(l.Phone)
		if err != nil {
			out.Invalid = append(out.Invalid, l.Phone)
			continue
		}
		if _, dup := seen[phone]; dup {
			out.Skipped++
			continue
		}
		seen[phone] = struct{}{}
		l.Phone = phone
		leads = append(leads, l)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(multiShotConcurrency)
	for i, lead := range leads {
		offset := time.Duration(input.Delay*int64(i)) * time.Second
		g.Go(func() error {
			if funnel.HasLead(lead.Phone) {
				mu.Lock()
				out.Skipped++
				mu.Unlock()
				return nil
			}
			workers := uc.Scheduler.Schedule(funnel, lead, offset)
			ok, err := uc.FunnelRepo.Enroll(gctx, funnel.ID, lead.Phone, workers)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				out.Skipped++
				return nil
			}
			out.Enrolled++
			uc.Metrics.RecordEnrollment(len(workers))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, databaseError("failed to enroll leads", err)
	}

	logger.From(ctx).Info("multishot processed",
		"fid", funnel.ID,
		"enrolled", out.Enrolled,
		"skipped", out.Skipped,
		"invalid", len(out.Invalid),
	)
	return out, nil
}
