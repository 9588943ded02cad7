package gateway

import (
	"encoding/json"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

// Eduzz transaction statuses.
const (
	eduzzOpened         = 1
	eduzzPaid           = 3
	eduzzCanceled       = 4
	eduzzWaitingRefund  = 6
	eduzzRefunded       = 7
	eduzzDuplicated     = 9
	eduzzExpired        = 10
	eduzzInRecover      = 11
	eduzzWaitingPayment = 15
)

var eduzzEvents = map[int]entity.Event{
	eduzzPaid:     entity.EventPurchaseApproved,
	eduzzExpired:  entity.EventAbandonedCart,
	eduzzRefunded: entity.EventRefunded,
}

type eduzzPayload struct {
	CusEmail        *string     `json:"cus_email" validate:"required"`
	CusName         *string     `json:"cus_name" validate:"required"`
	CusTel          string      `json:"cus_tel" validate:"required"`
	TransStatus     *int        `json:"trans_status" validate:"required"`
	TransValue      json.Number `json:"trans_value" validate:"required"`
	PageCheckoutURL *string     `json:"page_checkout_url" validate:"required"`
}

type Eduzz struct{}

func (Eduzz) Parse(body []byte) (entity.CanonicalEvent, error) {
	var p eduzzPayload
	if err := decode(body, &p); err != nil {
		return entity.CanonicalEvent{}, err
	}

	event, ok := eduzzEvents[*p.TransStatus]
	if !ok {
		return entity.CanonicalEvent{}, notRegistered("eduzz", *p.TransStatus)
	}

	lead, err := newLead("cus_tel", p.CusTel, leadFields{
		Name:     str(p.CusName),
		Email:    str(p.CusEmail),
		Checkout: str(p.PageCheckoutURL),
	})
	if err != nil {
		return entity.CanonicalEvent{}, err
	}

	if event == entity.EventPurchaseApproved {
		revenue, err := FromNumber(p.TransValue)
		if err != nil {
			return entity.CanonicalEvent{}, invalidAmount("trans_value")
		}
		return entity.NewSaleEvent(lead, revenue), nil
	}
	return entity.NewLeadEvent(event, lead), nil
}
