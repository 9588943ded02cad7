package gateway

import (
	"encoding/json"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

// Perfectpay sale_status_enum values.
const (
	ppNone = iota
	ppPending
	ppApproved
	ppInProcess
	ppInMediation
	ppRejected
	ppCancelled
	ppRefunded
	ppAuthorized
	ppChargedBack
	ppCompleted
	ppCheckoutError
	ppPrecheckout
	ppExpired
	ppInReview
)

var perfectpayEvents = map[int]entity.Event{
	ppApproved:      entity.EventPurchaseApproved,
	ppCheckoutError: entity.EventAbandonedCart,
	ppPrecheckout:   entity.EventAbandonedCart,
	ppChargedBack:   entity.EventChargeback,
	ppCancelled:     entity.EventRefunded,
	ppRefunded:      entity.EventRefunded,
}

type perfectpayPayload struct {
	SaleAmount     json.Number `json:"sale_amount" validate:"required"`
	SaleStatusEnum *int        `json:"sale_status_enum" validate:"required"`
	Customer       struct {
		FullName             *string `json:"full_name"`
		Email                *string `json:"email"`
		IdentificationNumber *string `json:"identification_number"`
		PhoneFormated        string  `json:"phone_formated" validate:"required"`
	} `json:"customer"`
	BilletURL *string `json:"billet_url" validate:"required"`
}

type Perfectpay struct{}

func (Perfectpay) Parse(body []byte) (entity.CanonicalEvent, error) {
	var p perfectpayPayload
	if err := decode(body, &p); err != nil {
		return entity.CanonicalEvent{}, err
	}

	event, ok := perfectpayEvents[*p.SaleStatusEnum]
	if !ok {
		return entity.CanonicalEvent{}, notRegistered("perfectpay", *p.SaleStatusEnum)
	}

	lead, err := newLead("customer.phone_formated", p.Customer.PhoneFormated, leadFields{
		Name:   str(p.Customer.FullName),
		Email:  str(p.Customer.Email),
		CPF:    str(p.Customer.IdentificationNumber),
		Boleto: str(p.BilletURL),
	})
	if err != nil {
		return entity.CanonicalEvent{}, err
	}

	if event == entity.EventPurchaseApproved {
		revenue, err := FromNumber(p.SaleAmount)
		if err != nil {
			return entity.CanonicalEvent{}, invalidAmount("sale_amount")
		}
		return entity.NewSaleEvent(lead, revenue), nil
	}
	return entity.NewLeadEvent(event, lead), nil
}
