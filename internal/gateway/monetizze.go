package gateway

import (
	"encoding/json"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

var monetizzeEvents = map[int]entity.Event{
	2:   entity.EventPurchaseApproved,
	101: entity.EventPurchaseApproved,
	7:   entity.EventAbandonedCart,
	4:   entity.EventRefunded,
	5:   entity.EventChargeback,
}

type monetizzePayload struct {
	TipoEvento *struct {
		Codigo *int `json:"codigo" validate:"required"`
	} `json:"tipoEvento" validate:"required"`
	Comprador *struct {
		Nome     *string `json:"nome"`
		CnpjCpf  *string `json:"cnpj_cpf"`
		Email    *string `json:"email"`
		Telefone string  `json:"telefone" validate:"required"`
	} `json:"comprador" validate:"required"`
	PixURL *string `json:"pix_url"`
	Venda  *struct {
		Valor      json.Number `json:"valor"`
		LinkBoleto *string     `json:"linkBoleto"`
	} `json:"venda" validate:"required"`
}

type Monetizze struct{}

func (Monetizze) Parse(body []byte) (entity.CanonicalEvent, error) {
	var p monetizzePayload
	if err := decode(body, &p); err != nil {
		return entity.CanonicalEvent{}, err
	}

	code := *p.TipoEvento.Codigo
	event, ok := monetizzeEvents[code]
	if !ok {
		return entity.CanonicalEvent{}, notRegistered("monetizze", code)
	}

	lead, err := newLead("comprador.telefone", p.Comprador.Telefone, leadFields{
		Name:   str(p.Comprador.Nome),
		Email:  str(p.Comprador.Email),
		CPF:    str(p.Comprador.CnpjCpf),
		Boleto: str(p.Venda.LinkBoleto),
		Pix:    str(p.PixURL),
	})
	if err != nil {
		return entity.CanonicalEvent{}, err
	}

	if event == entity.EventPurchaseApproved {
		if p.Venda.Valor == "" {
			return entity.CanonicalEvent{}, invalid("venda.valor", "is required for approved sales")
		}
		revenue, err := FromNumber(p.Venda.Valor)
		if err != nil {
			return entity.CanonicalEvent{}, invalidAmount("venda.valor")
		}
		return entity.NewSaleEvent(lead, revenue), nil
	}
	return entity.NewLeadEvent(event, lead), nil
}
