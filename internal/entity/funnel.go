package entity

import (
	"errors"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var ErrFunnelNotFound = errors.New("funil não encontrado")

type Gateway string

const (
	GatewayEduzz      Gateway = "eduzz"
	GatewayKiwify     Gateway = "kiwify"
	GatewayHotmart    Gateway = "hotmart"
	GatewayPerfectpay Gateway = "perfectpay"
	GatewayMonetizze  Gateway = "monetizze"
	GatewayKirvano    Gateway = "kirvano"
)

// Gateways lists every provider the registry must be able to parse.
var Gateways = []Gateway{
	GatewayEduzz,
	GatewayKiwify,
	GatewayHotmart,
	GatewayPerfectpay,
	GatewayMonetizze,
	GatewayKirvano,
}

type FunnelStatus string

const (
	FunnelActive    FunnelStatus = "active"
	FunnelSuspended FunnelStatus = "suspended"
)

// Shoot is one message step. ShootAfter counts from the previous shoot
// (or from enrollment for the first one); Delay is only used by the sender.
type Shoot struct {
	Index      int    `json:"index" validate:"gte=0"`
	ShootAfter int64  `json:"shoot_after" validate:"gte=0"`
	Delay      int64  `json:"delay" validate:"gte=0"`
	Message    string `json:"message" validate:"required_without=Media"`
	Media      string `json:"media,omitempty"`
}

type Funnel struct {
	ID               string          `json:"id"`
	UID              string          `json:"uid"`
	Name             string          `json:"name"`
	Gateway          Gateway         `json:"gateway"`
	ActivatingEvents []Event         `json:"events"`
	Status           FunnelStatus    `json:"status"`
	Shoots           []Shoot         `json:"shoots"`
	Leads            []string        `json:"leads"`
	Revenue          decimal.Decimal `json:"revenue"`
	Reaches          int64           `json:"reaches"`
	Recovers         int64           `json:"recovers"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (f *Funnel) IsSuspended() bool {
	return f.Status == FunnelSuspended
}

func (f *Funnel) Activates(e Event) bool {
	return slices.Contains(f.ActivatingEvents, e)
}

func (f *Funnel) HasLead(phone string) bool {
	return slices.Contains(f.Leads, phone)
}

// OrderedShoots returns a copy of the shoots sorted by Index.
func (f *Funnel) OrderedShoots() []Shoot {
	out := make([]Shoot, len(f.Shoots))
	copy(out, f.Shoots)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// CancelScope decides which workers a settlement deletes.
type CancelScope string

const (
	// CancelByPhone deletes every worker for the phone, across funnels.
	CancelByPhone CancelScope = "phone"
	// CancelByFunnel only deletes the settling funnel's workers.
	CancelByFunnel CancelScope = "funnel"
)
