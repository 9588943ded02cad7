package entity

import "github.com/shopspring/decimal"

type Settlement struct {
	FunnelID string
	Phone    string
	Revenue  decimal.Decimal
	Scope    CancelScope
}

type SettleResult struct {
	Settled          bool
	WorkersCancelled int64
}
