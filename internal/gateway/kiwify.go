package gateway

import (
	"strings"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

var kiwifyEvents = map[string]entity.Event{
	"paid":            entity.EventPurchaseApproved,
	"waiting_payment": entity.EventAbandonedCart,
	"refused":         entity.EventRefunded,
	"refunded":        entity.EventRefunded,
	"chargedback":     entity.EventChargeback,
}

type kiwifyPayload struct {
	OrderStatus string  `json:"order_status" validate:"required"`
	PixCode     *string `json:"pix_code"`
	BoletoURL   *string `json:"boleto_URL"`
	Customer    struct {
		FullName *string `json:"full_name" validate:"required"`
		Email    *string `json:"email" validate:"required"`
		Mobile   string  `json:"mobile" validate:"required"`
		CPF      *string `json:"CPF"`
		IP       *string `json:"ip"`
	} `json:"Customer"`
	Commissions struct {
		ChargeAmount string `json:"charge_amount" validate:"required"`
	} `json:"Commissions"`
}

type Kiwify struct{}

func (Kiwify) Parse(body []byte) (entity.CanonicalEvent, error) {
	var p kiwifyPayload
	if err := decode(body, &p); err != nil {
		return entity.CanonicalEvent{}, err
	}

	status := strings.ToLower(strings.TrimSpace(p.OrderStatus))
	event, ok := kiwifyEvents[status]
	if !ok {
		return entity.CanonicalEvent{}, notRegistered("kiwify", status)
	}

	lead, err := newLead("Customer.mobile", p.Customer.Mobile, leadFields{
		Name:   str(p.Customer.FullName),
		Email:  str(p.Customer.Email),
		CPF:    str(p.Customer.CPF),
		Pix:    str(p.PixCode),
		Boleto: str(p.BoletoURL),
	})
	if err != nil {
		return entity.CanonicalEvent{}, err
	}

	if event == entity.EventPurchaseApproved {
		// charge_amount chega em centavos
		revenue, err := FromCents(p.Commissions.ChargeAmount)
		if err != nil {
			return entity.CanonicalEvent{}, invalidAmount("Commissions.charge_amount")
		}
		return entity.NewSaleEvent(lead, revenue), nil
	}
	return entity.NewLeadEvent(event, lead), nil
}
