package entity

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/shopspring/decimal"
)

// Event é o vocabulário canônico ao qual todo payload de gateway é reduzido.
type Event string

const (
	EventAbandonedCart    Event = "abandoned-cart"
	EventPurchaseApproved Event = "purchase-approved"
	EventRefunded         Event = "refunded"
	EventChargeback       Event = "chargeback"
)

// Events lists the canonical events a funnel can be activated by.
var Events = []Event{
	EventAbandonedCart,
	EventPurchaseApproved,
	EventRefunded,
	EventChargeback,
}

func (e Event) Valid() bool {
	return slices.Contains(Events, e)
}

// EventType separates leads that should enter a funnel from sales that settle one.
type EventType string

const (
	TypeLead EventType = "lead"
	TypeSale EventType = "sale"
)

// Lead is identified by its normalized phone; every other field is optional.
type Lead struct {
	Phone       string `json:"phone"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	CPF         string `json:"cpf,omitempty"`
	PixCode     string `json:"pix_code,omitempty"`
	BoletoURL   string `json:"boleto_url,omitempty"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// CanonicalEvent is what a gateway adapter produces for one webhook delivery.
// Revenue is only meaningful when Type is TypeSale and is only encoded then.
type CanonicalEvent struct {
	Type    EventType       `json:"type"`
	Event   Event           `json:"event"`
	Lead    Lead            `json:"lead"`
	Revenue decimal.Decimal `json:"revenue"`
}

func (c CanonicalEvent) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type    EventType        `json:"type"`
		Event   Event            `json:"event"`
		Lead    Lead             `json:"lead"`
		Revenue *decimal.Decimal `json:"revenue,omitempty"`
	}
	w := wire{Type: c.Type, Event: c.Event, Lead: c.Lead}
	if c.IsSale() {
		w.Revenue = &c.Revenue
	}
	return json.Marshal(w)
}

func NewLeadEvent(event Event, lead Lead) CanonicalEvent {
	return CanonicalEvent{Type: TypeLead, Event: event, Lead: lead}
}

// NewSaleEvent always reports under EventPurchaseApproved.
func NewSaleEvent(lead Lead, revenue decimal.Decimal) CanonicalEvent {
	return CanonicalEvent{Type: TypeSale, Event: EventPurchaseApproved, Lead: lead, Revenue: revenue}
}

func (c CanonicalEvent) IsSale() bool {
	return c.Type == TypeSale
}

func (c CanonicalEvent) Validate() error {
	if c.Lead.Phone == "" {
		return errors.New("lead phone is required")
	}
	if !c.Event.Valid() {
		return errors.New("unknown canonical event")
	}
	switch c.Type {
	case TypeSale:
		if c.Event != EventPurchaseApproved {
			return errors.New("sale must be reported as purchase-approved")
		}
		if c.Revenue.IsNegative() {
			return errors.New("sale revenue must not be negative")
		}
	case TypeLead:
		if c.Event == EventPurchaseApproved {
			return errors.New("purchase-approved must be reported as a sale")
		}
	default:
		return errors.New("unknown event type")
	}
	return nil
}
