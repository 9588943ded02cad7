package usecase

import (
	"context"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/gateway"
)

// RemoveLeadUseCase takes a lead out of a funnel without a sale: the phone
// leaves the in-flight set and its pending workers are cancelled.
type RemoveLeadUseCase struct {
	FunnelRepo  FunnelRepositoryInterface
	UserRepo    UserRepositoryInterface
	CancelScope entity.CancelScope
}

func NewRemoveLeadUseCase(funnelRepo FunnelRepositoryInterface, userRepo UserRepositoryInterface, scope entity.CancelScope) *RemoveLeadUseCase {
	if scope == "" {
		scope = entity.CancelByPhone
	}
	return &RemoveLeadUseCase{
		FunnelRepo:  funnelRepo,
		UserRepo:    userRepo,
		CancelScope: scope,
	}
}

func (uc *RemoveLeadUseCase) Execute(ctx context.Context, input RemoveLeadInput) (*RemoveLeadOutput, error) {
	phone, err := gateway.NormalizePhone(input.Phone)
	if err != nil {
		return nil, invalidBody("phone is not a valid phone number")
	}

	funnel, err := findOwnedFunnel(ctx, uc.UserRepo, uc.FunnelRepo, input.UID, input.FID)
	if err != nil {
		return nil, err
	}

	removed, cancelled, err := uc.FunnelRepo.RemoveLead(ctx, funnel.ID, phone, uc.CancelScope)
	if err != nil {
		return nil, databaseError("failed to remove lead", err)
	}
	return &RemoveLeadOutput{Removed: removed, Phone: phone, WorkersCancelled: cancelled}, nil
}
