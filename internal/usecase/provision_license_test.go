package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/infra/memory"
	"github.com/xavierca1/ligue-funnels/internal/usecase"
)

func hotmartBody(event, email string) []byte {
	return []byte(fmt.Sprintf(`{
		"event": %q,
		"data": {
			"product": {"name": "Ligue Premium"},
			"buyer": {"email": %q, "name": "Ana", "checkout_phone": "11987654321"},
			"purchase": {"price": {"value": 97}, "payment": {}}
		}
	}`, event, email))
}

type licenseRepoMock struct {
	mock.Mock
}

func (m *licenseRepoMock) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *licenseRepoMock) Create(ctx context.Context, l *entity.License) error {
	return m.Called(ctx, l).Error(0)
}

func TestProvisionLicense(t *testing.T) {
	store := memory.NewStore()
	store.AddUser(&entity.User{ID: testUID, Email: "owner@example.com"})

	licenses := new(licenseRepoMock)
	licenses.On("ExistsByEmail", mock.Anything, "ana@example.com").Return(false, nil).Once()
	licenses.On("Create", mock.Anything, mock.MatchedBy(func(l *entity.License) bool {
		return l.Email == "ana@example.com" &&
			l.Phone == "5511987654321" &&
			l.Plan == "premium" &&
			l.LicensedUntil.Equal(fixedNow.AddDate(0, 0, 30))
	})).Return(nil).Once()

	uc := usecase.NewProvisionLicenseUseCase(licenses, store.Users(), 0)
	uc.Now = func() time.Time { return fixedNow }

	out, err := uc.Execute(context.Background(), hotmartBody("PURCHASE_APPROVED", "Ana@Example.com"))
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeLicenseCreated, out.Outcome)
	assert.Equal(t, "User created successfully", out.Message)
	licenses.AssertExpectations(t)
}

func TestProvisionLicense_Ignored(t *testing.T) {
	store := memory.NewStore()
	store.AddUser(&entity.User{ID: testUID, Email: "owner@example.com"})
	require.NoError(t, store.Licenses().Create(context.Background(), entity.NewLicense("Ana", "ana@example.com", "", 30, fixedNow)))

	uc := usecase.NewProvisionLicenseUseCase(store.Licenses(), store.Users(), 30)

	tests := []struct {
		name string
		body []byte
		want usecase.Outcome
	}{
		{"refund", hotmartBody("PURCHASE_REFUNDED", "x@example.com"), usecase.OutcomeNotSale},
		{"unmapped event", hotmartBody("PURCHASE_DELAYED", "x@example.com"), usecase.OutcomeNotSale},
		{"license exists", hotmartBody("PURCHASE_APPROVED", "ana@example.com"), usecase.OutcomeLicenseExists},
		{"user exists", hotmartBody("PURCHASE_APPROVED", "owner@example.com"), usecase.OutcomeUserExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := uc.Execute(context.Background(), tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Outcome)
		})
	}
}

func TestProvisionLicense_Errors(t *testing.T) {
	store := memory.NewStore()

	t.Run("missing email", func(t *testing.T) {
		uc := usecase.NewProvisionLicenseUseCase(store.Licenses(), store.Users(), 30)
		_, err := uc.Execute(context.Background(), hotmartBody("PURCHASE_APPROVED", ""))
		var de *usecase.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, usecase.CodeValidation, de.Code)
	})

	t.Run("malformed", func(t *testing.T) {
		uc := usecase.NewProvisionLicenseUseCase(store.Licenses(), store.Users(), 30)
		_, err := uc.Execute(context.Background(), []byte(`{"data":{}}`))
		assert.True(t, usecase.IsDomainError(err))
	})

	t.Run("database", func(t *testing.T) {
		licenses := new(licenseRepoMock)
		licenses.On("ExistsByEmail", mock.Anything, "ana@example.com").Return(false, errors.New("boom"))
		uc := usecase.NewProvisionLicenseUseCase(licenses, store.Users(), 30)

		_, err := uc.Execute(context.Background(), hotmartBody("PURCHASE_APPROVED", "ana@example.com"))
		assert.True(t, usecase.IsTechnicalError(err))
		licenses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
