package gateway

import (
	"encoding/json"
	"strings"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

const hotmartOutOfCart = "PURCHASE_OUT_OF_SHOPPING_CART"

// PURCHASE_CANCELED, _COMPLETE, _BILLET_PRINTED, _PROTEST, _EXPIRED and
// _DELAYED are valid Hotmart events with no canonical counterpart.
var hotmartEvents = map[string]entity.Event{
	hotmartOutOfCart:      entity.EventAbandonedCart,
	"PURCHASE_APPROVED":   entity.EventPurchaseApproved,
	"PURCHASE_REFUNDED":   entity.EventRefunded,
	"PURCHASE_CHARGEBACK": entity.EventChargeback,
}

type hotmartEnvelope struct {
	Event string `json:"event" validate:"required"`
}

type hotmartOutOfCartPayload struct {
	Data struct {
		Buyer struct {
			Name  *string `json:"name" validate:"required"`
			Email *string `json:"email" validate:"required"`
			Phone string  `json:"phone" validate:"required"`
		} `json:"buyer"`
	} `json:"data"`
}

type hotmartOrderPayload struct {
	Data struct {
		Product struct {
			Name string `json:"name" validate:"required"`
		} `json:"product"`
		Buyer struct {
			Email         *string `json:"email"`
			Name          *string `json:"name"`
			CheckoutPhone string  `json:"checkout_phone" validate:"required"`
		} `json:"buyer"`
		Purchase struct {
			Price struct {
				Value json.Number `json:"value" validate:"required"`
			} `json:"price"`
			Payment struct {
				BilletBarcode *string `json:"billet_barcode"`
				PixCode       *string `json:"pix_code"`
			} `json:"payment"`
		} `json:"purchase"`
	} `json:"data"`
}

type Hotmart struct{}

func (Hotmart) Parse(body []byte) (entity.CanonicalEvent, error) {
	var env hotmartEnvelope
	if err := decode(body, &env); err != nil {
		return entity.CanonicalEvent{}, err
	}

	name := strings.ToUpper(strings.TrimSpace(env.Event))
	event, ok := hotmartEvents[name]
	if !ok {
		return entity.CanonicalEvent{}, notRegistered("hotmart", name)
	}

	if name == hotmartOutOfCart {
		var p hotmartOutOfCartPayload
		if err := decode(body, &p); err != nil {
			return entity.CanonicalEvent{}, err
		}
		lead, err := newLead("data.buyer.phone", p.Data.Buyer.Phone, leadFields{
			Name:  str(p.Data.Buyer.Name),
			Email: str(p.Data.Buyer.Email),
		})
		if err != nil {
			return entity.CanonicalEvent{}, err
		}
		return entity.NewLeadEvent(event, lead), nil
	}

	var p hotmartOrderPayload
	if err := decode(body, &p); err != nil {
		return entity.CanonicalEvent{}, err
	}
	buyer := p.Data.Buyer
	payment := p.Data.Purchase.Payment
	lead, err := newLead("data.buyer.checkout_phone", buyer.CheckoutPhone, leadFields{
		Name:   str(buyer.Name),
		Email:  str(buyer.Email),
		Boleto: str(payment.BilletBarcode),
		Pix:    str(payment.PixCode),
	})
	if err != nil {
		return entity.CanonicalEvent{}, err
	}

	if event == entity.EventPurchaseApproved {
		revenue, err := FromNumber(p.Data.Purchase.Price.Value)
		if err != nil {
			return entity.CanonicalEvent{}, invalidAmount("data.purchase.price.value")
		}
		return entity.NewSaleEvent(lead, revenue), nil
	}
	return entity.NewLeadEvent(event, lead), nil
}
