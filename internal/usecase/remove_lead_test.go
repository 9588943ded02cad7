package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/infra/memory"
	"github.com/xavierca1/ligue-funnels/internal/usecase"
)

func TestRemoveLead(t *testing.T) {
	e := newEngine(t, entity.CancelByPhone, newFunnel(testFID, entity.Shoot{Index: 0}, entity.Shoot{Index: 1, ShootAfter: 60}))
	e.deliver(t, testFID, abandoned(testPhone))

	uc := usecase.NewRemoveLeadUseCase(e.store.Funnels(), e.store.Users(), "")
	out, err := uc.Execute(context.Background(), usecase.RemoveLeadInput{UID: testUID, FID: testFID, Phone: "+55 (11) 99999-9999"})
	require.NoError(t, err)
	assert.True(t, out.Removed)
	assert.Equal(t, testPhone, out.Phone)
	assert.Equal(t, int64(2), out.WorkersCancelled)

	f := e.funnel(t, testFID)
	assert.Empty(t, f.Leads)
	assert.Equal(t, int64(1), f.Reaches, "reaches is a counter, not the in-flight size")
	assert.Empty(t, e.workers(t, testPhone))

	// já removido
	out, err = uc.Execute(context.Background(), usecase.RemoveLeadInput{UID: testUID, FID: testFID, Phone: testPhone})
	require.NoError(t, err)
	assert.False(t, out.Removed)
	assert.Zero(t, out.WorkersCancelled)
}

func TestRemoveLead_InvalidPhone(t *testing.T) {
	e := newEngine(t, entity.CancelByPhone, newFunnel(testFID))
	uc := usecase.NewRemoveLeadUseCase(e.store.Funnels(), e.store.Users(), entity.CancelByFunnel)

	_, err := uc.Execute(context.Background(), usecase.RemoveLeadInput{UID: testUID, FID: testFID, Phone: "12"})
	var de *usecase.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, usecase.CodeValidation, de.Code)
}

func TestRemoveLead_FailedRemovalCanBeRetried(t *testing.T) {
	store := memory.NewStore()
	store.AddUser(&entity.User{ID: testUID})

	repo := new(funnelRepoMock)
	repo.On("FindByID", mock.Anything, testFID).Return(newFunnel(testFID), nil)
	repo.On("RemoveLead", mock.Anything, testFID, testPhone, entity.CancelByFunnel).Return(false, int64(0), errors.New("db down")).Once()
	repo.On("RemoveLead", mock.Anything, testFID, testPhone, entity.CancelByFunnel).Return(true, int64(2), nil).Once()

	uc := usecase.NewRemoveLeadUseCase(repo, store.Users(), entity.CancelByFunnel)
	input := usecase.RemoveLeadInput{UID: testUID, FID: testFID, Phone: testPhone}

	_, err := uc.Execute(context.Background(), input)
	assert.True(t, usecase.IsTechnicalError(err))

	// a remoção é atômica: a nova tentativa ainda encontra o lead
	out, err := uc.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, out.Removed)
	assert.Equal(t, int64(2), out.WorkersCancelled)
	repo.AssertExpectations(t)
}

func TestRemoveLead_KeepsOtherFunnelsWorkers(t *testing.T) {
	e := newEngine(t, entity.CancelByFunnel,
		newFunnel(testFID, entity.Shoot{Index: 0}),
		newFunnel("funnel-2", entity.Shoot{Index: 0}),
	)
	e.deliver(t, testFID, abandoned(testPhone))
	e.deliver(t, "funnel-2", abandoned(testPhone))

	uc := usecase.NewRemoveLeadUseCase(e.store.Funnels(), e.store.Users(), entity.CancelByFunnel)
	out, err := uc.Execute(context.Background(), usecase.RemoveLeadInput{UID: testUID, FID: testFID, Phone: testPhone})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.WorkersCancelled)

	left := e.workers(t, testPhone)
	require.Len(t, left, 1)
	assert.Equal(t, "funnel-2", left[0].FID)
}
