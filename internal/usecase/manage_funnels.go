package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/gateway"
	"github.com/xavierca1/ligue-funnels/internal/logger"
)

// ManageFunnelsUseCase is the dashboard side of a funnel: create, edit,
// read, list and delete. The webhook flow owns leads and counters.
type ManageFunnelsUseCase struct {
	FunnelStore FunnelStoreInterface
	UserStore   UserStoreInterface
	Now         func() time.Time
}

func NewManageFunnelsUseCase(funnelStore FunnelStoreInterface, userStore UserStoreInterface) *ManageFunnelsUseCase {
	return &ManageFunnelsUseCase{
		FunnelStore: funnelStore,
		UserStore:   userStore,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ManageFunnelsUseCase) Save(ctx context.Context, input SaveFunnelInput) (*SaveFunnelOutput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := gateway.ValidateStruct(input); err != nil {
		return nil, invalidBody(err.Error())
	}
	if !slices.Contains(entity.Gateways, input.Gateway) {
		return nil, invalidBody("gateway is not supported")
	}
	for _, e := range input.Events {
		if !e.Valid() {
			return nil, invalidBody("events must only contain " + joinEvents(entity.Events))
		}
	}
	if err := checkShootIndexes(input.Shoots); err != nil {
		return nil, err
	}

	if input.ID == "" {
		return uc.create(ctx, input)
	}
	return uc.update(ctx, input)
}

func (uc *ManageFunnelsUseCase) create(ctx context.Context, input SaveFunnelInput) (*SaveFunnelOutput, error) {
	if _, err := uc.UserStore.FindByID(ctx, input.UID); err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, notFound("User could not be found")
		}
		return nil, databaseError("failed to load user", err)
	}

	status := input.Status
	if status == "" {
		status = entity.FunnelActive
	}
	f := &entity.Funnel{
		ID:               uuid.NewString(),
		UID:              input.UID,
		Name:             input.Name,
		Gateway:          input.Gateway,
		ActivatingEvents: slices.Clone(input.Events),
		Status:           status,
		Shoots:           slices.Clone(input.Shoots),
		Leads:            []string{},
		Revenue:          decimal.Zero,
		CreatedAt:        uc.Now(),
	}
	if err := uc.FunnelStore.Create(ctx, f); err != nil {
		return nil, databaseError("failed to create funnel", err)
	}

	logger.From(ctx).Info("funnel created", "fid", f.ID, "uid", f.UID, "gateway", f.Gateway)
	return &SaveFunnelOutput{Created: true, FunnelID: f.ID}, nil
}

func (uc *ManageFunnelsUseCase) update(ctx context.Context, input SaveFunnelInput) (*SaveFunnelOutput, error) {
	current, err := uc.Get(ctx, input.UID, input.ID)
	if err != nil {
		return nil, err
	}

	current.Name = input.Name
	current.Gateway = input.Gateway
	current.ActivatingEvents = slices.Clone(input.Events)
	current.Shoots = slices.Clone(input.Shoots)
	if input.Status != "" {
		current.Status = input.Status
	}
	if err := uc.FunnelStore.Update(ctx, current); err != nil {
		if errors.Is(err, entity.ErrFunnelNotFound) {
			return nil, notFound("User or Funnel could not be found")
		}
		return nil, databaseError("failed to update funnel", err)
	}

	// workers já agendados mantêm o shoot antigo
	logger.From(ctx).Info("funnel updated", "fid", current.ID, "status", current.Status)
	return &SaveFunnelOutput{Updated: true, FunnelID: current.ID}, nil
}

// Get returns the funnel only when uid owns it.
func (uc *ManageFunnelsUseCase) Get(ctx context.Context, uid, fid string) (*entity.Funnel, error) {
	return findOwnedFunnel(ctx, uc.UserStore, uc.FunnelStore, uid, fid)
}

func (uc *ManageFunnelsUseCase) ListByUserEmail(ctx context.Context, email string) ([]*entity.Funnel, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalidBody("email is required")
	}
	user, err := uc.UserStore.FindByEmail(ctx, email)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil, notFound("User could not be found")
	}
	if err != nil {
		return nil, databaseError("failed to load user", err)
	}

	funnels, err := uc.FunnelStore.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, databaseError("failed to list funnels", err)
	}
	return funnels, nil
}

// Delete removes the funnel and cancels every worker still pending on it.
func (uc *ManageFunnelsUseCase) Delete(ctx context.Context, uid, fid string) (*DeleteFunnelOutput, error) {
	funnel, err := uc.Get(ctx, uid, fid)
	if err != nil {
		return nil, err
	}

	cancelled, err := uc.FunnelStore.Delete(ctx, funnel.ID)
	if err != nil {
		if errors.Is(err, entity.ErrFunnelNotFound) {
			return nil, notFound("User or Funnel could not be found")
		}
		return nil, databaseError("failed to delete funnel", err)
	}

	logger.From(ctx).Info("funnel deleted", "fid", funnel.ID, "workers_cancelled", cancelled)
	return &DeleteFunnelOutput{Deleted: true, FunnelID: funnel.ID, WorkersCancelled: cancelled}, nil
}

func checkShootIndexes(shoots []entity.Shoot) error {
	seen := make(map[int]struct{}, len(shoots))
	for _, s := range shoots {
		if _, dup := seen[s.Index]; dup {
			return invalidBody("shoots must have unique indexes")
		}
		seen[s.Index] = struct{}{}
	}
	return nil
}

func joinEvents(events []entity.Event) string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}
