package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/gateway"
	"github.com/xavierca1/ligue-funnels/internal/logger"
)

// ProcessWebhookUseCase drives the per-lead funnel state machine:
// absent -> in flight (enroll) -> absent (settle).
type ProcessWebhookUseCase struct {
	FunnelRepo  FunnelRepositoryInterface
	UserRepo    UserRepositoryInterface
	Scheduler   *Scheduler
	Guard       DeliveryGuard
	Metrics     MetricsRecorder
	CancelScope entity.CancelScope
}

func NewProcessWebhookUseCase(
	funnelRepo FunnelRepositoryInterface,
	userRepo UserRepositoryInterface,
	scheduler *Scheduler,
	guard DeliveryGuard,
	metrics MetricsRecorder,
	scope entity.CancelScope,
) *ProcessWebhookUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if scope == "" {
		scope = entity.CancelByPhone
	}
	return &ProcessWebhookUseCase{
		FunnelRepo:  funnelRepo,
		UserRepo:    userRepo,
		Scheduler:   scheduler,
		Guard:       guard,
		Metrics:     metrics,
		CancelScope: scope,
	}
}

func (uc *ProcessWebhookUseCase) Execute(ctx context.Context, input ProcessWebhookInput) (out *ProcessWebhookOutput, err error) {
	log := logger.From(ctx).With("uid", input.UID, "fid", input.FID)

	// 1. Usuário e funil em paralelo
	funnel, err := findOwnedFunnel(ctx, uc.UserRepo, uc.FunnelRepo, input.UID, input.FID)
	if err != nil {
		log.Warn("webhook rejected", "err", err)
		return nil, err
	}
	log = log.With("gateway", string(funnel.Gateway))
	defer func() {
		if out != nil {
			uc.Metrics.RecordWebhookOutcome(string(funnel.Gateway), string(out.Outcome))
			log.Info("webhook processed", "outcome", out.Outcome, "phone", out.Phone)
		}
	}()

	// 2. Funil suspenso não recebe nada
	if funnel.IsSuspended() {
		return output(OutcomeSuspended), nil
	}

	// 3. Payload do gateway -> evento canônico
	event, err := gateway.Parse(funnel.Gateway, input.Body)
	if err != nil {
		if errors.Is(err, gateway.ErrEventNotRegistered) {
			log.Debug("event not registered", "reason", err.Error())
			return output(OutcomeEventNotRegistered), nil
		}
		if gateway.IsValidationError(err) {
			return nil, invalidBody(err.Error())
		}
		// gateway desconhecido: funil mal configurado
		return nil, &TechnicalError{Code: CodeGateway, Message: "funnel gateway is not supported", Err: err}
	}

	// 4. Reentregas idênticas do provedor; só payloads válidos ocupam a chave
	if uc.Guard != nil {
		key := deliveryKey(funnel.ID, input.Body)
		fresh, gerr := uc.Guard.Acquire(ctx, key)
		if gerr != nil {
			log.Warn("delivery guard unavailable", "err", gerr)
		} else if !fresh {
			return output(OutcomeDuplicateDelivery), nil
		} else {
			defer func() {
				if err != nil {
					if rerr := uc.Guard.Release(context.WithoutCancel(ctx), key); rerr != nil {
						log.Warn("delivery guard release failed", "err", rerr)
					}
				}
			}()
		}
	}

	if event.IsSale() {
		return uc.settle(ctx, funnel, event)
	}
	return uc.enroll(ctx, funnel, event)
}

type funnelFinder interface {
	FindByID(ctx context.Context, id string) (*entity.Funnel, error)
}

// findOwnedFunnel loads user and funnel together; a funnel owned by someone
// else is reported exactly like a missing one.
func findOwnedFunnel(ctx context.Context, users UserRepositoryInterface, funnels funnelFinder, uid, fid string) (*entity.Funnel, error) {
	var (
		user   *entity.User
		funnel *entity.Funnel
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := users.FindByID(gctx, uid)
		user = u
		return err
	})
	g.Go(func() error {
		f, err := funnels.FindByID(gctx, fid)
		funnel = f
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, entity.ErrUserNotFound) || errors.Is(err, entity.ErrFunnelNotFound) {
			return nil, notFound("User or Funnel could not be found")
		}
		return nil, databaseError("failed to load funnel", err)
	}
	if user == nil || funnel == nil || funnel.UID != user.ID {
		return nil, notFound("User or Funnel could not be found")
	}
	return funnel, nil
}

func (uc *ProcessWebhookUseCase) enroll(ctx context.Context, funnel *entity.Funnel, event entity.CanonicalEvent) (*ProcessWebhookOutput, error) {
	phone := event.Lead.Phone

	if !funnel.Activates(event.Event) {
		return withPhone(output(OutcomeEventNotActivated), phone), nil
	}
	if funnel.HasLead(phone) {
		return withPhone(output(OutcomeDuplicateLead), phone), nil
	}

	workers := uc.Scheduler.Schedule(funnel, event.Lead, 0)
	enrolled, err := uc.FunnelRepo.Enroll(ctx, funnel.ID, phone, workers)
	if err != nil {
		return nil, databaseError("failed to enroll lead", err)
	}
	if !enrolled {
		// outra entrega ganhou a corrida
		return withPhone(output(OutcomeDuplicateLead), phone), nil
	}

	uc.Metrics.RecordEnrollment(len(workers))
	out := withPhone(output(OutcomeEnrolled), phone)
	out.WorkersScheduled = len(workers)
	return out, nil
}

func (uc *ProcessWebhookUseCase) settle(ctx context.Context, funnel *entity.Funnel, event entity.CanonicalEvent) (*ProcessWebhookOutput, error) {
	phone := event.Lead.Phone

	if !funnel.HasLead(phone) {
		return withPhone(output(OutcomeOrphanSale), phone), nil
	}

	res, err := uc.FunnelRepo.Settle(ctx, entity.Settlement{
		FunnelID: funnel.ID,
		Phone:    phone,
		Revenue:  event.Revenue,
		Scope:    uc.CancelScope,
	})
	if err != nil {
		return nil, databaseError("failed to settle lead", err)
	}
	if !res.Settled {
		return withPhone(output(OutcomeOrphanSale), phone), nil
	}

	uc.Metrics.RecordSettlement(event.Revenue, res.WorkersCancelled)
	out := withPhone(output(OutcomeSettled), phone)
	out.WorkersCancelled = res.WorkersCancelled
	return out, nil
}

func withPhone(out *ProcessWebhookOutput, phone string) *ProcessWebhookOutput {
	out.Phone = phone
	return out
}

// deliveryKey is stable for byte-identical deliveries to the same funnel.
func deliveryKey(fid string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(fid))
	h.Write([]byte{'|'})
	h.Write(body)
	return "webhook:" + fid + ":" + hex.EncodeToString(h.Sum(nil))
}
