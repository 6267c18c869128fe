// README: AMQP publisher for the ride event stream (topic exchange).
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"rideflow/internal/infra"
)

// AMQPPublisher publishes lifecycle events to the ride topic exchange for
// downstream billing and analytics consumers.
type AMQPPublisher struct {
	ch *amqp.Channel
}

func NewAMQPPublisher(a *infra.AMQP) *AMQPPublisher {
	return &AMQPPublisher{ch: a.Ch}
}

var _ EventPublisher = (*AMQPPublisher)(nil)

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return p.ch.PublishWithContext(ctx, infra.RideExchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}
