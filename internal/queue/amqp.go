package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/streadway/amqp"
)

const maxDeliveryAttempts = 3

// AMQPQueue publishes events to a fanout exchange and consumes them from a durable queue.
type AMQPQueue struct {
	conn      *amqp.Connection
	exchange  string
	queueName string

	mu sync.Mutex
	ch *amqp.Channel
}

// DialAMQP connects and declares the exchange.
func DialAMQP(url, exchange, queueName string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, exchange: exchange, queueName: queueName}, nil
}

// Publish sends the event as JSON with the topic as routing key.
func (q *AMQPQueue) Publish(topic string, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ch.Publish(
		q.exchange,
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         topic,
			Body:         body,
		},
	)
}

// Subscribe binds the durable queue and handles deliveries whose type matches topic.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	declared, err := ch.QueueDeclare(
		q.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(declared.Name, "", q.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		declared.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			handleDelivery(d, topic, handler)
		}
		log.Println("⚠️ AMQP delivery channel closed")
	}()
	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// delivery is the subset of amqp.Delivery the consumer loop reads.
type delivery struct {
	acknowledger
	Type        string
	Body        []byte
	Redelivered bool
}

func handleDelivery(d amqp.Delivery, topic string, handler Handler) {
	dispatch(delivery{acknowledger: &d, Type: d.Type, Body: d.Body, Redelivered: d.Redelivered}, topic, handler, attemptsFrom(d.Headers))
}

func attemptsFrom(headers amqp.Table) int {
	if v, ok := headers["x-delivery-count"]; ok {
		switch n := v.(type) {
		case int64:
			return int(n)
		case int32:
			return int(n)
		case int:
			return n
		}
	}
	return 0
}

func dispatch(d delivery, topic string, handler Handler, attempts int) {
	if d.Type != "" && d.Type != topic {
		d.Ack(false)
		return
	}
	var evt Event
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		log.Println("Invalid event:", err)
		d.Ack(false)
		return
	}
	if err := handler(evt); err != nil {
		log.Printf("⚠️ Failed to handle event for campaign %d: %v", evt.CampaignID, err)
		// requeue once; a redelivered message that fails again is dropped
		if !d.Redelivered && attempts < maxDeliveryAttempts {
			d.Nack(false, true)
			return
		}
	}
	d.Ack(false)
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil {
		q.ch.Close()
	}
	return q.conn.Close()
}

var (
	_ Queue = (*InMemoryQueue)(nil)
	_ Queue = (*AMQPQueue)(nil)
)
