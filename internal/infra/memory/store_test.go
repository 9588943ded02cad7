package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func worker(id, fid, phone string, at time.Time, index int) *entity.Worker {
	return &entity.Worker{
		ID:        id,
		FID:       fid,
		Lead:      entity.Lead{Phone: phone},
		Shoot:     entity.Shoot{Index: index},
		PerformAt: at,
	}
}

func TestFunnelRepository_EnrollAndSettle(t *testing.T) {
	s := NewStore()
	s.AddFunnel(&entity.Funnel{ID: "f1", Status: entity.FunnelActive, Revenue: decimal.Zero})
	repo := s.Funnels()
	ctx := context.Background()

	ok, err := repo.Enroll(ctx, "f1", "5511", []*entity.Worker{worker("w1", "f1", "5511", t0, 0)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Enroll(ctx, "f1", "5511", []*entity.Worker{worker("w2", "f1", "5511", t0, 0)})
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Workers().CountByPhone(ctx, "5511")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "a refused enroll must not store workers")

	res, err := repo.Settle(ctx, entity.Settlement{FunnelID: "f1", Phone: "5511", Revenue: decimal.RequireFromString("10.5")})
	require.NoError(t, err)
	assert.Equal(t, entity.SettleResult{Settled: true, WorkersCancelled: 1}, res)

	res, err = repo.Settle(ctx, entity.Settlement{FunnelID: "f1", Phone: "5511", Revenue: decimal.RequireFromString("10.5")})
	require.NoError(t, err)
	assert.False(t, res.Settled)

	f, err := repo.FindByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.Reaches)
	assert.Equal(t, int64(1), f.Recovers)
	assert.Equal(t, "10.5", f.Revenue.String())
	assert.Empty(t, f.Leads)
}

func TestFunnelRepository_RemoveLeadCancelsWorkersByScope(t *testing.T) {
	tests := []struct {
		scope entity.CancelScope
		want  int64
		left  int64
	}{
		{entity.CancelByPhone, 2, 0},
		{entity.CancelByFunnel, 1, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			s := NewStore()
			s.AddFunnel(&entity.Funnel{ID: "f1", Status: entity.FunnelActive})
			s.AddFunnel(&entity.Funnel{ID: "f2", Status: entity.FunnelActive})
			ctx := context.Background()
			_, err := s.Funnels().Enroll(ctx, "f1", "5511", []*entity.Worker{worker("w1", "f1", "5511", t0, 0)})
			require.NoError(t, err)
			_, err = s.Funnels().Enroll(ctx, "f2", "5511", []*entity.Worker{worker("w2", "f2", "5511", t0, 0)})
			require.NoError(t, err)

			removed, cancelled, err := s.Funnels().RemoveLead(ctx, "f1", "5511", tt.scope)
			require.NoError(t, err)
			assert.True(t, removed)
			assert.Equal(t, tt.want, cancelled)

			left, err := s.Workers().CountByPhone(ctx, "5511")
			require.NoError(t, err)
			assert.Equal(t, tt.left, left)

			removed, cancelled, err = s.Funnels().RemoveLead(ctx, "f1", "5511", tt.scope)
			require.NoError(t, err)
			assert.False(t, removed)
			assert.Zero(t, cancelled)
		})
	}
}

func TestFunnelRepository_EnrollSuspended(t *testing.T) {
	s := NewStore()
	s.AddFunnel(&entity.Funnel{ID: "f1", Status: entity.FunnelSuspended})

	ok, err := s.Funnels().Enroll(context.Background(), "f1", "5511", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFunnelRepository_NotFound(t *testing.T) {
	s := NewStore()
	_, err := s.Funnels().FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrFunnelNotFound)

	_, err = s.Users().FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrUserNotFound)
}

func TestFunnelRepository_FindByIDReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AddFunnel(&entity.Funnel{ID: "f1", Leads: []string{"a"}})

	f, err := s.Funnels().FindByID(context.Background(), "f1")
	require.NoError(t, err)
	f.Leads[0] = "changed"

	f, err = s.Funnels().FindByID(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, f.Leads)
}

func TestWorkerRepository_ClaimDue(t *testing.T) {
	s := NewStore()
	s.AddFunnel(&entity.Funnel{ID: "f1", Status: entity.FunnelActive})
	_, err := s.Funnels().Enroll(context.Background(), "f1", "5511", []*entity.Worker{
		worker("late", "f1", "5511", t0.Add(time.Hour), 2),
		worker("second", "f1", "5511", t0.Add(time.Minute), 1),
		worker("first", "f1", "5511", t0, 0),
	})
	require.NoError(t, err)

	var got []string
	n, err := s.Workers().ClaimDue(context.Background(), t0.Add(time.Minute), 10, func(w *entity.Worker) error {
		got = append(got, w.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"first", "second"}, got)

	left, err := s.Workers().CountByPhone(context.Background(), "5511")
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestWorkerRepository_ClaimDueStopsOnError(t *testing.T) {
	s := NewStore()
	s.AddFunnel(&entity.Funnel{ID: "f1", Status: entity.FunnelActive})
	_, err := s.Funnels().Enroll(context.Background(), "f1", "5511", []*entity.Worker{
		worker("a", "f1", "5511", t0, 0),
		worker("b", "f1", "5511", t0.Add(time.Second), 1),
	})
	require.NoError(t, err)

	boom := errors.New("broker down")
	calls := 0
	n, err := s.Workers().ClaimDue(context.Background(), t0.Add(time.Hour), 0, func(w *entity.Worker) error {
		calls++
		if w.ID == "b" {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, calls)

	ws, err := s.Workers().ListByPhone(context.Background(), "5511")
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "b", ws[0].ID)
}

func TestLicenseAndUserRepository_ExistsByEmail(t *testing.T) {
	s := NewStore()
	s.AddUser(&entity.User{ID: "u1", Email: "Owner@Example.com"})
	require.NoError(t, s.Licenses().Create(context.Background(), &entity.License{ID: "l1", Email: "lic@example.com"}))

	ok, err := s.Users().ExistsByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Licenses().ExistsByEmail(context.Background(), "LIC@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Licenses().ExistsByEmail(context.Background(), "other@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFunnelRepository_ManageLifecycle(t *testing.T) {
	s := NewStore()
	repo := s.Funnels()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.Funnel{ID: "f2", UID: "u1", Name: "B", CreatedAt: t0.Add(time.Hour), Revenue: decimal.Zero}))
	require.NoError(t, repo.Create(ctx, &entity.Funnel{ID: "f1", UID: "u1", Name: "A", CreatedAt: t0, Status: entity.FunnelActive, Revenue: decimal.Zero}))
	require.NoError(t, repo.Create(ctx, &entity.Funnel{ID: "other", UID: "u2", CreatedAt: t0}))
	assert.Error(t, repo.Create(ctx, &entity.Funnel{ID: "f1", UID: "u1"}))

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "f1", list[0].ID)
	assert.Equal(t, "f2", list[1].ID)

	list, err = repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = repo.Enroll(ctx, "f1", "5511", []*entity.Worker{worker("w1", "f1", "5511", t0, 0)})
	require.NoError(t, err)
	_, err = repo.Enroll(ctx, "f2", "5511", []*entity.Worker{worker("w2", "f2", "5511", t0, 0)})
	require.NoError(t, err)

	// o webhook é dono de leads e contadores
	require.NoError(t, repo.Update(ctx, &entity.Funnel{ID: "f1", UID: "u1", Name: "A2", Status: entity.FunnelSuspended}))
	f, err := repo.FindByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "A2", f.Name)
	assert.True(t, f.IsSuspended())
	assert.Equal(t, []string{"5511"}, f.Leads)
	assert.Equal(t, int64(1), f.Reaches)
	assert.Equal(t, t0, f.CreatedAt)

	assert.ErrorIs(t, repo.Update(ctx, &entity.Funnel{ID: "f1", UID: "u2"}), entity.ErrFunnelNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &entity.Funnel{ID: "nope", UID: "u1"}), entity.ErrFunnelNotFound)

	cancelled, err := repo.Delete(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cancelled)

	ws, err := s.Workers().ListByPhone(ctx, "5511")
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "f2", ws[0].FID)

	_, err = repo.FindByID(ctx, "f1")
	assert.ErrorIs(t, err, entity.ErrFunnelNotFound)
	_, err = repo.Delete(ctx, "f1")
	assert.ErrorIs(t, err, entity.ErrFunnelNotFound)
}

func TestUserRepository_CreateAndFindByEmail(t *testing.T) {
	s := NewStore()
	users := s.Users()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &entity.User{ID: "u1", Email: "Ana@Example.com"}))
	assert.ErrorIs(t, users.Create(ctx, &entity.User{ID: "u2", Email: "ana@example.com"}), entity.ErrUserAlreadyExists)
	assert.ErrorIs(t, users.Create(ctx, &entity.User{ID: "u1", Email: "b@example.com"}), entity.ErrUserAlreadyExists)

	u, err := users.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = users.FindByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, entity.ErrUserNotFound)
}

func TestStore_LoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"users": [{"id": "u1", "email": "a@example.com"}],
		"funnels": [{
			"id": "f1", "uid": "u1", "gateway": "kiwify", "status": "active",
			"events": ["abandoned-cart"], "revenue": "0",
			"shoots": [{"index": 0, "shoot_after": 60, "message": "oi"}]
		}]
	}`), 0o600))

	s := NewStore()
	require.NoError(t, s.LoadSeed(path))

	f, err := s.Funnels().FindByID(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, entity.GatewayKiwify, f.Gateway)
	assert.True(t, f.Activates(entity.EventAbandonedCart))
	require.Len(t, f.Shoots, 1)
	assert.Equal(t, int64(60), f.Shoots[0].ShootAfter)

	_, err = s.Users().FindByID(context.Background(), "u1")
	assert.NoError(t, err)

	assert.Error(t, s.LoadSeed(filepath.Join(t.TempDir(), "missing.json")))
}
