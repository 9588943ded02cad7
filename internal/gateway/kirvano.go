package gateway

import (
	"strings"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

// BANK_SLIP_EXPIRED, PIX_EXPIRED, SUBSCRIPTION_CANCELED and SUBSCRIPTION_EXPIRED
// are sent by Kirvano but have no canonical counterpart.
var kirvanoEvents = map[string]entity.Event{
	"SALE_APPROVED":        entity.EventPurchaseApproved,
	"SUBSCRIPTION_RENEWED": entity.EventPurchaseApproved,
	"BANK_SLIP_GENERATED":  entity.EventAbandonedCart,
	"ABANDONED_CART":       entity.EventAbandonedCart,
	"PIX_GENERATED":        entity.EventAbandonedCart,
	"SALE_REFUSED":         entity.EventRefunded,
	"SALE_REFUNDED":        entity.EventRefunded,
	"SALE_CHARGEBACK":      entity.EventChargeback,
}

type kirvanoPayload struct {
	Event      string `json:"event" validate:"required"`
	TotalPrice string `json:"total_price" validate:"required"`
	Customer   struct {
		Name        *string `json:"name"`
		Document    *string `json:"document"`
		Email       *string `json:"email"`
		PhoneNumber string  `json:"phone_number" validate:"required"`
	} `json:"customer"`
	Payment *struct {
		Link    *string `json:"link"`
		Barcode *string `json:"barcode"`
		QRCode  *string `json:"qrcode"`
	} `json:"payment" validate:"required"`
}

type Kirvano struct{}

func (Kirvano) Parse(body []byte) (entity.CanonicalEvent, error) {
	var p kirvanoPayload
	if err := decode(body, &p); err != nil {
		return entity.CanonicalEvent{}, err
	}

	name := strings.ToUpper(strings.TrimSpace(p.Event))
	event, ok := kirvanoEvents[name]
	if !ok {
		return entity.CanonicalEvent{}, notRegistered("kirvano", name)
	}

	lead, err := newLead("customer.phone_number", p.Customer.PhoneNumber, leadFields{
		Name:     str(p.Customer.Name),
		Email:    str(p.Customer.Email),
		CPF:      str(p.Customer.Document),
		Boleto:   str(p.Payment.Barcode),
		Pix:      str(p.Payment.QRCode),
		Checkout: str(p.Payment.Link),
	})
	if err != nil {
		return entity.CanonicalEvent{}, err
	}

	if event == entity.EventPurchaseApproved {
		revenue, err := FromBRL(p.TotalPrice)
		if err != nil {
			return entity.CanonicalEvent{}, invalidAmount("total_price")
		}
		return entity.NewSaleEvent(lead, revenue), nil
	}
	return entity.NewLeadEvent(event, lead), nil
}
