package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/storefront/internal/dal/interfaces/iinboxrepo"
	"github.com/corray333/storefront/internal/dal/rabbitmq"
	"github.com/corray333/storefront/internal/metrics"
	"github.com/corray333/storefront/internal/service/models/inbox"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// service represents the service layer interface.
type service interface {
	ProcessEvent(ctx context.Context, body []byte) error
}

// Consumer represents the RabbitMQ consumer transport. Deliveries that fail
// processing are parked in the inbox table and acknowledged so the queue
// never wedges on one bad event; the inbox worker owns the retries.
type Consumer struct {
	client    *rabbitmq.Client
	service   service
	inboxRepo iinboxrepo.IInboxRepository
	metrics   *metrics.ServerMetrics
	queue     amqp.Queue
	stop      chan struct{}
	done      chan struct{}
}

// NewConsumer creates a new Consumer.
func NewConsumer(
	client *rabbitmq.Client,
	service service,
	inboxRepo iinboxrepo.IInboxRepository,
	serverMetrics *metrics.ServerMetrics,
) *Consumer {
	queue, err := client.DeclareEventQueue()
	if err != nil {
		panic(err)
	}

	return &Consumer{
		client:    client,
		service:   service,
		inboxRepo: inboxRepo,
		metrics:   serverMetrics,
		queue:     queue,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run starts consuming messages from RabbitMQ.
func (c *Consumer) Run(ctx context.Context) error {
	consumerTag := viper.GetString("rabbitmq.consumer_tag")
	if consumerTag == "" {
		consumerTag = "notifier"
	}

	msgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:     c.queue.Name,
		Consumer:  consumerTag,
		AutoAck:   false,
		Exclusive: viper.GetBool("rabbitmq.exclusive"),
		NoLocal:   viper.GetBool("rabbitmq.no_local"),
		NoWait:    viper.GetBool("rabbitmq.no_wait"),
	})
	if err != nil {
		return err
	}

	slog.Info("Consumer started", "queue", c.queue.Name, "consumer_tag", consumerTag)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(50)

	go func() {
		for {
			select {
			case <-c.stop:
				slog.Info("Stopping consumer")
				close(c.done)

				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Info("Message channel closed")
					close(c.done)

					return
				}

				g.Go(func() error {
					return c.processMessage(gctx, msg)
				})
			}
		}
	}()

	<-c.done
	if err := g.Wait(); err != nil {
		slog.Error("Error processing messages", "error", err)
	}

	return nil
}

// processMessage processes a single message from RabbitMQ.
func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) error {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processMessage")
	defer span.End()

	slog.Info("Received message", "delivery_tag", msg.DeliveryTag)

	if err := c.service.ProcessEvent(ctx, msg.Body); err != nil {
		slog.Error("Failed to process event, parking in inbox", "error", err)
		c.metrics.EventConsumed("failed")

		if err := c.parkMessage(ctx, msg, err); err != nil {
			slog.Error("Failed to park message in inbox", "error", err)
			// Park failed; requeue so the delivery is not lost.
			if err := msg.Nack(false, true); err != nil {
				slog.Error("Failed to nack message", "error", err)
			}

			return err
		}
	} else {
		c.metrics.EventConsumed("ok")
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("Failed to ack message", "error", err)

		return err
	}

	return nil
}

// parkMessage stores a failed delivery in the inbox for the retry worker.
func (c *Consumer) parkMessage(ctx context.Context, msg amqp.Delivery, procErr error) error {
	maxRetries := viper.GetInt("rabbitmq.inbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 10
	}

	now := time.Now()

	return c.inboxRepo.Insert(ctx, inbox.Message{
		MessageID:   msg.MessageId,
		QueueName:   c.queue.Name,
		RoutingKey:  msg.RoutingKey,
		Payload:     msg.Body,
		ContentType: msg.ContentType,
		MaxRetries:  maxRetries,
		LastError:   procErr.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now.Add(30 * time.Second),
		DeliveryTag: msg.DeliveryTag,
	})
}

// Shutdown gracefully shuts down the consumer.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer")
	close(c.stop)

	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}
