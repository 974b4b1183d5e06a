package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one job. Implementations report their result through
// the result store; the consumer only drives delivery and acknowledgement.
type Handler interface {
	HandleJob(ctx context.Context, job Job)
}

// Consumer pulls ingestion jobs from a durable AMQP queue. Messages are
// acknowledged only after the handler returns, so a crash or shutdown
// mid-batch redelivers the job; all downstream writes are idempotent
// upserts and tolerate that.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	handler Handler
	logger  *zap.Logger
}

// NewConsumer connects, declares the durable queue and returns a consumer.
func NewConsumer(url, queueName string, handler Handler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("queue: dial: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("queue: open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("queue: declare %s: %w", queueName, err)
	}

	// one unacked job per worker; rows inside a job are sequential anyway
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("queue: set qos: %w", err)
	}

	return &Consumer{
		conn:    conn,
		channel: channel,
		queue:   queueName,
		handler: handler,
		logger:  logger,
	}, nil
}

// Run consumes until the context is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue: consume %s: %w", c.queue, err)
	}

	c.logger.Info("consuming jobs", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("queue: delivery channel closed")
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var job Job
	if err := json.Unmarshal(delivery.Body, &job); err != nil {
		c.logger.Error("undecodable job dropped", zap.Error(err))
		if err := delivery.Nack(false, false); err != nil {
			c.logger.Warn("nack failed", zap.Error(err))
		}
		return
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}

	c.logger.Info("job received",
		zap.String("job_id", job.JobID),
		zap.String("csv_path", job.CSVPath),
		zap.String("sensor_type", job.SensorType))

	c.handler.HandleJob(ctx, job)

	// a cancelled context means shutdown interrupted the batch: every row
	// transaction failed against the closing pool. Requeue instead of
	// acking; the upserts are idempotent, so rerunning a partially applied
	// job is safe.
	if ctx.Err() != nil {
		c.logger.Warn("requeueing job interrupted by shutdown", zap.String("job_id", job.JobID))
		if err := delivery.Nack(false, true); err != nil {
			c.logger.Warn("nack failed", zap.String("job_id", job.JobID), zap.Error(err))
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		c.logger.Warn("ack failed", zap.String("job_id", job.JobID), zap.Error(err))
	}
}

// Close releases the channel and connection.
func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
