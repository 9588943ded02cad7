package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

type FunnelRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*entity.Funnel, error)
	// Enroll adds phone to the funnel's in-flight leads, increments reaches and
	// stores workers in one transaction. It reports false, without writing,
	// when the phone is already in flight or the funnel is suspended.
	Enroll(ctx context.Context, funnelID, phone string, workers []*entity.Worker) (bool, error)
	// Settle removes phone from the in-flight leads, adds revenue, increments
	// recovers and deletes the phone's workers in one transaction. It reports
	// false, without writing, when the phone is not in flight.
	Settle(ctx context.Context, s entity.Settlement) (entity.SettleResult, error)
	// RemoveLead removes phone from the in-flight leads and deletes its workers
	// (by scope) in one transaction. It reports whether the phone was in flight.
	RemoveLead(ctx context.Context, funnelID, phone string, scope entity.CancelScope) (removed bool, cancelled int64, err error)
}

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// FunnelStoreInterface backs the dashboard's funnel management.
type FunnelStoreInterface interface {
	FindByID(ctx context.Context, id string) (*entity.Funnel, error)
	ListByUser(ctx context.Context, uid string) ([]*entity.Funnel, error)
	Create(ctx context.Context, f *entity.Funnel) error
	// Update replaces name, gateway, events, status and shoots of a funnel
	// owned by f.UID; it never touches leads, revenue or counters.
	Update(ctx context.Context, f *entity.Funnel) error
	// Delete removes the funnel and its pending workers in one transaction.
	Delete(ctx context.Context, id string) (cancelled int64, err error)
}

type UserStoreInterface interface {
	UserRepositoryInterface
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
}

type WorkerRepositoryInterface interface {
	DeleteByPhone(ctx context.Context, phone string) (int64, error)
	DeleteByFunnelAndPhone(ctx context.Context, funnelID, phone string) (int64, error)
}

type LicenseRepositoryInterface interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, l *entity.License) error
}

// DeliveryGuard suppresses replays of the same webhook body within a window.
type DeliveryGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type MetricsRecorder interface {
	RecordWebhookOutcome(gateway, outcome string)
	RecordEnrollment(workers int)
	RecordSettlement(revenue decimal.Decimal, cancelled int64)
}

type noopMetrics struct{}

func (noopMetrics) RecordWebhookOutcome(string, string)     {}
func (noopMetrics) RecordEnrollment(int)                    {}
func (noopMetrics) RecordSettlement(decimal.Decimal, int64) {}
