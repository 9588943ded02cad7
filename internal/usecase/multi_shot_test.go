package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-funnels/internal/entity"
	"github.com/xavierca1/ligue-funnels/internal/infra/memory"
	"github.com/xavierca1/ligue-funnels/internal/usecase"
)

func newMultiShot(t *testing.T, funnels ...*entity.Funnel) (*memory.Store, *usecase.MultiShotUseCase) {
	t.Helper()
	store := memory.NewStore()
	store.AddUser(&entity.User{ID: testUID})
	for _, f := range funnels {
		store.AddFunnel(f)
	}
	scheduler := usecase.NewScheduler(store.Workers())
	scheduler.Now = func() time.Time { return fixedNow }
	return store, usecase.NewMultiShotUseCase(store.Funnels(), store.Users(), scheduler, nil)
}

func TestMultiShot_SpacesLeadsByDelay(t *testing.T) {
	store, uc := newMultiShot(t, newFunnel(testFID, entity.Shoot{Index: 0, ShootAfter: 10}))
	ctx := context.Background()

	out, err := uc.Execute(ctx, usecase.MultiShotInput{
		UID: testUID,
		FID: testFID,
		Leads: []entity.Lead{
			{Phone: "11 98765-4321", Name: "A"},
			{Phone: "+55 21 99876-5432", Name: "B"},
			{Phone: "5511987654321"}, // mesmo telefone do primeiro
			{Phone: "abc"},
		},
		Delay: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Enrolled)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, []string{"abc"}, out.Invalid)

	first, err := store.Workers().ListByPhone(ctx, "5511987654321")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 10*time.Second, first[0].PerformAt.Sub(fixedNow))

	second, err := store.Workers().ListByPhone(ctx, "5521998765432")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 70*time.Second, second[0].PerformAt.Sub(fixedNow))

	f, err := store.Funnels().FindByID(ctx, testFID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.Reaches)
	assert.ElementsMatch(t, []string{"5511987654321", "5521998765432"}, f.Leads)
}

func TestMultiShot_SkipsInFlightLeads(t *testing.T) {
	f := newFunnel(testFID, entity.Shoot{Index: 0})
	f.Leads = []string{testPhone}
	_, uc := newMultiShot(t, f)

	out, err := uc.Execute(context.Background(), usecase.MultiShotInput{
		UID:   testUID,
		FID:   testFID,
		Leads: []entity.Lead{{Phone: testPhone}},
	})
	require.NoError(t, err)
	assert.Zero(t, out.Enrolled)
	assert.Equal(t, 1, out.Skipped)
}

func TestMultiShot_Errors(t *testing.T) {
	suspended := newFunnel("suspended", entity.Shoot{Index: 0})
	suspended.Status = entity.FunnelSuspended
	_, uc := newMultiShot(t, newFunnel(testFID), suspended)

	tests := []struct {
		name  string
		input usecase.MultiShotInput
		code  string
	}{
		{"no leads", usecase.MultiShotInput{UID: testUID, FID: testFID}, usecase.CodeValidation},
		{"negative delay", usecase.MultiShotInput{UID: testUID, FID: testFID, Leads: []entity.Lead{{Phone: testPhone}}, Delay: -1}, usecase.CodeValidation},
		{"unknown funnel", usecase.MultiShotInput{UID: testUID, FID: "nope", Leads: []entity.Lead{{Phone: testPhone}}}, usecase.CodeNotFound},
		{"suspended", usecase.MultiShotInput{UID: testUID, FID: "suspended", Leads: []entity.Lead{{Phone: testPhone}}}, usecase.CodeFunnelSuspended},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.input)
			var de *usecase.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}
