package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/gateway"
	"github.com/xavierca1/ligue-funnels/internal/logger"
)

// ProvisionLicenseUseCase grants a premium license to whoever buys the
// product on Hotmart. It backs the legacy POST /webhook endpoint.
type ProvisionLicenseUseCase struct {
	LicenseRepo LicenseRepositoryInterface
	UserRepo    UserRepositoryInterface
	Days        int
	Now         func() time.Time
}

func NewProvisionLicenseUseCase(licenseRepo LicenseRepositoryInterface, userRepo UserRepositoryInterface, days int) *ProvisionLicenseUseCase {
	if days <= 0 {
		days = 30
	}
	return &ProvisionLicenseUseCase{
		LicenseRepo: licenseRepo,
		UserRepo:    userRepo,
		Days:        days,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ProvisionLicenseUseCase) Execute(ctx context.Context, body []byte) (*ProvisionLicenseOutput, error) {
	event, err := gateway.Parse(entity.GatewayHotmart, body)
	if err != nil {
		if errors.Is(err, gateway.ErrEventNotRegistered) {
			return licenseOutput(OutcomeNotSale), nil
		}
		return nil, invalidBody(err.Error())
	}
	if !event.IsSale() {
		return licenseOutput(OutcomeNotSale), nil
	}

	email := strings.ToLower(strings.TrimSpace(event.Lead.Email))
	if email == "" {
		return nil, invalidBody("data.buyer.email is required")
	}

	exists, err := uc.LicenseRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, databaseError("failed to check license", err)
	}
	if exists {
		return licenseOutput(OutcomeLicenseExists), nil
	}

	exists, err = uc.UserRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, databaseError("failed to check user", err)
	}
	if exists {
		return licenseOutput(OutcomeUserExists), nil
	}

	license := entity.NewLicense(event.Lead.Name, email, event.Lead.Phone, uc.Days, uc.Now())
	if err := uc.LicenseRepo.Create(ctx, license); err != nil {
		if errors.Is(err, entity.ErrLicenseAlreadyExists) {
			// entrega concorrente criou primeiro
			return licenseOutput(OutcomeLicenseExists), nil
		}
		return nil, databaseError("failed to create license", err)
	}

	logger.From(ctx).Info("license provisioned", "license_id", license.ID, "until", license.LicensedUntil)
	return licenseOutput(OutcomeLicenseCreated), nil
}

func licenseOutput(o Outcome) *ProvisionLicenseOutput {
	return &ProvisionLicenseOutput{Outcome: o, Message: o.Message()}
}
