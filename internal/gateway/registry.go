package gateway

import (
	"errors"
	"fmt"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

var ErrUnknownGateway = errors.New("unknown gateway")

// Adapter validates one provider payload and reduces it to a canonical event.
// A failed parse returns either a *ValidationError or an error wrapping
// ErrEventNotRegistered.
type Adapter interface {
	Parse(body []byte) (entity.CanonicalEvent, error)
}

// For returns the adapter configured for g.
func For(g entity.Gateway) (Adapter, error) {
	switch g {
	case entity.GatewayEduzz:
		return Eduzz{}, nil
	case entity.GatewayKiwify:
		return Kiwify{}, nil
	case entity.GatewayHotmart:
		return Hotmart{}, nil
	case entity.GatewayPerfectpay:
		return Perfectpay{}, nil
	case entity.GatewayMonetizze:
		return Monetizze{}, nil
	case entity.GatewayKirvano:
		return Kirvano{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, g)
	}
}

func Parse(g entity.Gateway, body []byte) (entity.CanonicalEvent, error) {
	adapter, err := For(g)
	if err != nil {
		return entity.CanonicalEvent{}, err
	}
	return parseWith(adapter, body)
}

func parseWith(adapter Adapter, body []byte) (entity.CanonicalEvent, error) {
	event, err := adapter.Parse(body)
	if err != nil {
		return entity.CanonicalEvent{}, err
	}
	// adaptador com mapeamento errado não pode vazar para o fluxo
	if err := event.Validate(); err != nil {
		return entity.CanonicalEvent{}, invalid("event", err.Error())
	}
	return event, nil
}

func notRegistered(provider string, status any) error {
	return fmt.Errorf("%s status %v: %w", provider, status, ErrEventNotRegistered)
}

// leadFields holds the optional lead data every adapter extracts.
type leadFields struct {
	Name, Email, CPF, Pix, Boleto, Checkout string
}

func newLead(phoneField, rawPhone string, f leadFields) (entity.Lead, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return entity.Lead{}, invalid(phoneField, "is not a valid phone number")
	}
	return entity.Lead{
		Phone:       phone,
		Name:        f.Name,
		Email:       f.Email,
		CPF:         f.CPF,
		PixCode:     f.Pix,
		BoletoURL:   f.Boleto,
		CheckoutURL: f.Checkout,
	}, nil
}

func invalidAmount(field string) error {
	return invalid(field, "is not a valid amount")
}
