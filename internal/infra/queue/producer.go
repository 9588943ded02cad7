package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

// DispatchPayload is what the WhatsApp sender consumes from q.dispatches.
type DispatchPayload struct {
	WorkerID  string       `json:"worker_id"`
	UID       string       `json:"uid"`
	FID       string       `json:"fid"`
	Lead      entity.Lead  `json:"lead"`
	Shoot     entity.Shoot `json:"shoot"`
	PerformAt time.Time    `json:"perform_at"`
}

func NewDispatchPayload(w *entity.Worker) DispatchPayload {
	return DispatchPayload{
		WorkerID:  w.ID,
		UID:       w.UID,
		FID:       w.FID,
		Lead:      w.Lead,
		Shoot:     w.Shoot,
		PerformAt: w.PerformAt,
	}
}

type QueueProducerInterface interface {
	PublishDispatch(ctx context.Context, payload DispatchPayload) error
}

// Publisher is the part of *amqp.Channel the producer uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishDispatch(ctx context.Context, payload DispatchPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName, // ex.funnels
		RoutingKey,   // k.dispatch
		false,        // Mandatory
		false,        // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    payload.WorkerID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}
	return nil
}
