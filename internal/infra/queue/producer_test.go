package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *mockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind, durable).Error(0)
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	ret := m.Called(name, durable, args)
	return amqp.Queue{Name: name}, ret.Error(0)
}

func (m *mockChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return m.Called(name, key, exchange).Error(0)
}

func testWorker() *entity.Worker {
	return &entity.Worker{
		ID:        "w-1",
		UID:       "u-1",
		FID:       "f-1",
		Lead:      entity.Lead{Phone: "5511987654321", Name: "João"},
		Shoot:     entity.Shoot{Index: 1, ShootAfter: 60, Message: "Seu carrinho está esperando"},
		PerformAt: time.Date(2025, 3, 10, 12, 1, 0, 0, time.UTC),
	}
}

func TestPublishDispatch(t *testing.T) {
	ch := new(mockChannel)
	var sent amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, ExchangeName, RoutingKey, false, false, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(5).(amqp.Publishing) }).
		Return(nil)

	err := NewProducer(ch).PublishDispatch(context.Background(), NewDispatchPayload(testWorker()))
	require.NoError(t, err)
	ch.AssertExpectations(t)

	assert.Equal(t, "application/json", sent.ContentType)
	assert.Equal(t, amqp.Persistent, sent.DeliveryMode)
	assert.Equal(t, "w-1", sent.MessageId)

	var data map[string]any
	require.NoError(t, json.Unmarshal(sent.Body, &data))
	for _, field := range []string{"worker_id", "uid", "fid", "lead", "shoot", "perform_at"} {
		assert.Contains(t, data, field)
	}
	assert.Equal(t, "5511987654321", data["lead"].(map[string]any)["phone"])
}

func TestPublishDispatch_Error(t *testing.T) {
	ch := new(mockChannel)
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, false, false, mock.Anything).
		Return(errors.New("channel/connection is not open"))

	err := NewProducer(ch).PublishDispatch(context.Background(), NewDispatchPayload(testWorker()))
	assert.ErrorContains(t, err, "falha ao publicar no RabbitMQ")
}

func TestSetupTopology(t *testing.T) {
	ch := new(mockChannel)
	ch.On("ExchangeDeclare", DLXName, "direct", true).Return(nil).Once()
	ch.On("QueueDeclare", DLQName, true, amqp.Table(nil)).Return(nil).Once()
	ch.On("QueueBind", DLQName, RoutingKey, DLXName).Return(nil).Once()
	ch.On("ExchangeDeclare", ExchangeName, "direct", true).Return(nil).Once()
	ch.On("QueueDeclare", QueueName, true, amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": RoutingKey,
	}).Return(nil).Once()
	ch.On("QueueBind", QueueName, RoutingKey, ExchangeName).Return(nil).Once()

	require.NoError(t, setupTopology(ch))
	ch.AssertExpectations(t)
}

func TestSetupTopology_StopsOnError(t *testing.T) {
	ch := new(mockChannel)
	ch.On("ExchangeDeclare", DLXName, "direct", true).Return(errors.New("access refused"))

	assert.Error(t, setupTopology(ch))
	ch.AssertNotCalled(t, "QueueDeclare", mock.Anything, mock.Anything, mock.Anything)
}
