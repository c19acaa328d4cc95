// Package rabbitmq provides the broker-backed job transport.
// Jobs are published as JSON envelopes to one durable queue and consumed
// with manual acknowledgements, so an unacknowledged delivery survives a
// consumer crash and the at-least-once contract holds across restarts.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/jobs"

	amqp "github.com/rabbitmq/amqp091-go"
)

// consumerTag identifies this service's consumer on the job queue.
const consumerTag = "orderflow-worker"

// envelope is the wire format of one job.
type envelope struct {
	Type             string `json:"type"`
	OrderID          string `json:"order_id"`
	FailureDirective string `json:"failure_directive,omitempty"`
	Attempt          int    `json:"attempt"`
}

// Queue implements ports.JobQueue on top of a RabbitMQ queue and runs the
// consumer side of the same queue.
type Queue struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	registry  *jobs.HandlerRegistry
	logger    *slog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	quit     chan struct{}
}

// NewQueue connects to the broker and declares the durable job queue.
func NewQueue(url, queueName string, registry *jobs.HandlerRegistry, logger *slog.Logger) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Queue{
		conn:      conn,
		channel:   channel,
		queueName: queueName,
		registry:  registry,
		logger:    logger.With("component", "rabbitmq_queue"),
		quit:      make(chan struct{}),
	}, nil
}

// Enqueue publishes a job as a persistent message.
func (q *Queue) Enqueue(ctx context.Context, job ports.Job) error {
	body, err := json.Marshal(envelope{
		Type:             job.Type,
		OrderID:          job.OrderID.String(),
		FailureDirective: job.FailureDirective,
		Attempt:          job.Attempt,
	})
	if err != nil {
		return err
	}

	return q.channel.PublishWithContext(ctx,
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// StartConsumer begins consuming jobs with prefetch-bounded concurrency.
// Each delivery runs in its own goroutine; concurrency controls how many
// unacknowledged deliveries the broker hands this consumer at once.
func (q *Queue) StartConsumer(concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	if err := q.channel.Qos(concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := q.channel.Consume(
		q.queueName,
		consumerTag,
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to consume queue: %w", err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for delivery := range deliveries {
			q.wg.Add(1)
			go func(d amqp.Delivery) {
				defer q.wg.Done()
				q.handleDelivery(d)
			}(delivery)
		}
	}()

	q.logger.Info("RabbitMQ consumer started", "queue", q.queueName, "prefetch", concurrency)
	return nil
}

// Close stops consuming and closes the broker connection.
// In-flight deliveries finish first; anything unacknowledged is redelivered
// by the broker to the next consumer.
func (q *Queue) Close() {
	q.stopOnce.Do(func() {
		close(q.quit)
		_ = q.channel.Cancel(consumerTag, false)
	})
	q.wg.Wait()
	_ = q.channel.Close()
	_ = q.conn.Close()
	q.logger.Info("RabbitMQ queue closed")
}

// handleDelivery executes one delivery and enforces the handler's decision:
// ack on done, delayed republish with attempt+1 on retry, ack plus alert on
// terminal failure, and broker-side requeue when no decision was reached.
func (q *Queue) handleDelivery(delivery amqp.Delivery) {
	ctx := context.Background()

	job, err := q.decode(delivery.Body)
	if err != nil {
		q.logger.ErrorContext(ctx, "Dropped malformed job message", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	handler, err := q.registry.Resolve(job.Type)
	if err != nil {
		q.logger.ErrorContext(ctx, "Dropped job of unregistered type",
			"job_type", job.Type, "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	result, err := handler.Execute(ctx, job)
	if err != nil {
		q.logger.WarnContext(ctx, "Job handler reached no decision, requeueing",
			"job_type", job.Type, "attempt", job.Attempt, "error", err)
		_ = delivery.Nack(false, true)
		return
	}

	switch result.Outcome {
	case ports.JobOutcomeRetry:
		q.scheduleRetry(job, result.Delay)
		_ = delivery.Ack(false)
	case ports.JobOutcomeFailed:
		q.logger.ErrorContext(ctx, "Job failed terminally",
			"job_type", job.Type, "attempt", job.Attempt, "error", result.Err)
		_ = delivery.Ack(false)
	case ports.JobOutcomeDone, ports.JobOutcomeUnknown:
		_ = delivery.Ack(false)
	}
}

// scheduleRetry republishes the job with an incremented attempt counter
// after the backoff delay. If the process dies before the timer fires the
// order stays in Processing; operational alerting covers that gap, the same
// way it would a lost worker.
func (q *Queue) scheduleRetry(job ports.Job, delay time.Duration) {
	next := job
	next.Attempt++

	q.wg.Add(1)
	timer := time.AfterFunc(delay, func() {
		defer q.wg.Done()
		select {
		case <-q.quit:
			return
		default:
		}

		if err := q.Enqueue(context.Background(), next); err != nil {
			q.logger.Error("Retry republish failed",
				"order_id", next.OrderID.String(), "attempt", next.Attempt, "error", err)
		}
	})

	go func() {
		<-q.quit
		if timer.Stop() {
			q.wg.Done()
		}
	}()
}

func (q *Queue) decode(body []byte) (ports.Job, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ports.Job{}, err
	}

	orderID, err := kernel.UUIDFromString(env.OrderID)
	if err != nil {
		return ports.Job{}, err
	}

	return ports.Job{
		Type:             env.Type,
		OrderID:          orderID,
		FailureDirective: env.FailureDirective,
		Attempt:          env.Attempt,
	}, nil
}
