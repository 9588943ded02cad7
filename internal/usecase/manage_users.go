package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/gateway"
	"github.com/xavierca1/ligue-funnels/internal/logger"
)

// ManageUsersUseCase registers dashboard accounts, which own funnels.
type ManageUsersUseCase struct {
	UserStore UserStoreInterface
	Now       func() time.Time
}

func NewManageUsersUseCase(userStore UserStoreInterface) *ManageUsersUseCase {
	return &ManageUsersUseCase{
		UserStore: userStore,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ManageUsersUseCase) Create(ctx context.Context, input CreateUserInput) (*CreateUserOutput, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if err := gateway.ValidateStruct(input); err != nil {
		return nil, invalidBody(err.Error())
	}

	u := &entity.User{
		ID:        input.ID,
		Email:     input.Email,
		Name:      input.Name,
		CreatedAt: uc.Now(),
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := uc.UserStore.Create(ctx, u); err != nil {
		if errors.Is(err, entity.ErrUserAlreadyExists) {
			return nil, &DomainError{Code: CodeConflict, Message: OutcomeUserExists.Message()}
		}
		return nil, databaseError("failed to create user", err)
	}

	logger.From(ctx).Info("user created", "uid", u.ID)
	return &CreateUserOutput{Created: true, UserID: u.ID}, nil
}

// Exists answers the dashboard's sign-in check by email.
func (uc *ManageUsersUseCase) Exists(ctx context.Context, email string) (*UserExistsOutput, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalidBody("email is required")
	}
	u, err := uc.UserStore.FindByEmail(ctx, email)
	if errors.Is(err, entity.ErrUserNotFound) {
		return &UserExistsOutput{}, nil
	}
	if err != nil {
		return nil, databaseError("failed to load user", err)
	}
	return &UserExistsOutput{UserExists: true, UserID: u.ID, User: u}, nil
}
