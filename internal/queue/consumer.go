package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer consumes dispatch jobs from a RabbitMQ queue
type Consumer struct {
	conn          *Connection
	queueName     string
	handler       JobHandler
	prefetchCount int
	stopChan      chan struct{}
	doneChan      chan struct{}
}

// JobHandler processes one dispatch job. A non-nil error requeues the job.
type JobHandler func(job *DispatchJob) error

// NewConsumer creates a new consumer instance.
// prefetchCount bounds the number of unacknowledged jobs in flight,
// which keeps the worker within the provider's rate limits.
func NewConsumer(conn *Connection, queueName string, prefetchCount int, handler JobHandler) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}
	if prefetchCount <= 0 {
		prefetchCount = 1
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	// Declare queue (same settings as publisher: durable, non-auto-delete)
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Consumer{
		conn:          conn,
		queueName:     queueName,
		handler:       handler,
		prefetchCount: prefetchCount,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}, nil
}

// Start starts consuming jobs from the queue
func (c *Consumer) Start() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	err = ch.Qos(
		c.prefetchCount, // prefetch count
		0,               // prefetch size
		false,           // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual acknowledgement)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		defer close(c.doneChan)

		for {
			select {
			case <-c.stopChan:
				log.Println("Consumer stopping...")
				return
			case d, ok := <-msgs:
				if !ok {
					log.Println("Delivery channel closed")
					return
				}

				if err := c.processDelivery(d); err != nil {
					log.Printf("Error processing dispatch job: %v", err)
					d.Nack(false, true)
				} else {
					d.Ack(false)
				}
			}
		}
	}()

	log.Printf("Consumer started, listening on queue: %s", c.queueName)
	return nil
}

// processDelivery decodes and handles a single delivery
func (c *Consumer) processDelivery(d amqp.Delivery) error {
	var job DispatchJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		return fmt.Errorf("failed to unmarshal dispatch job: %w", err)
	}

	return c.handler(&job)
}

// Stop stops consuming jobs gracefully
func (c *Consumer) Stop() error {
	close(c.stopChan)
	<-c.doneChan

	log.Println("Consumer stopped successfully")
	return nil
}
