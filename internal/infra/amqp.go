// README: RabbitMQ connection and channel setup for the ride event stream.
package infra

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RideExchange is the topic exchange all ride lifecycle events are published to.
const RideExchange = "ride_topic"

type AMQP struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(RideExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQP{Conn: conn, Ch: ch}, nil
}

func (a *AMQP) Close() {
	if a == nil {
		return
	}
	if a.Ch != nil {
		a.Ch.Close()
	}
	if a.Conn != nil {
		a.Conn.Close()
	}
}
