package rabbitmq

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// Client wraps a single AMQP connection and channel carrying the order event
// stream. All publishing and consuming goes through the client; the raw
// channel is never handed out.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// MustNewClient creates a new RabbitMQ client.
func MustNewClient() *Client {
	host := viper.GetString("rabbitmq.host")
	if host == "" {
		host = "rabbitmq"
	}
	port := viper.GetInt("rabbitmq.port")
	if port == 0 {
		port = 5672
	}

	connStr := fmt.Sprintf(
		"amqp://%s:%s@%s:%d/",
		viper.GetString("rabbitmq.user"),
		viper.GetString("rabbitmq.password"),
		host,
		port,
	)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}

	channel, err := conn.Channel()
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			panic(fmt.Sprintf("Failed to close a connection: %v", closeErr))
		}
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	slog.Info("RabbitMQ connected", "host", host, "port", port)

	return &Client{
		conn:    conn,
		channel: channel,
	}
}

// Close closes the channel and connection for graceful shutdown.
func (r *Client) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}

// DeclareEventQueue declares the durable queue named by rabbitmq.queue, where
// order events are published and consumed.
func (r *Client) DeclareEventQueue() (amqp.Queue, error) {
	name := viper.GetString("rabbitmq.queue")
	if name == "" {
		return amqp.Queue{}, errors.New("rabbitmq.queue is not set in config")
	}

	return r.channel.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
}

type PublishConfig struct {
	Exchange    string
	RoutingKey  string
	ContentType string
	Body        []byte
}

// Publish sends one message with the given configuration.
func (r *Client) Publish(cfg PublishConfig) error {
	return r.channel.Publish(
		cfg.Exchange,
		cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: cfg.ContentType,
			Body:        cfg.Body,
		},
	)
}

type ConsumeConfig struct {
	Queue     string
	Consumer  string
	AutoAck   bool
	Exclusive bool
	NoLocal   bool
	NoWait    bool
	Args      amqp.Table
}

// Consume starts consuming messages from the queue.
func (r *Client) Consume(cfg ConsumeConfig) (<-chan amqp.Delivery, error) {
	return r.channel.Consume(
		cfg.Queue,
		cfg.Consumer,
		cfg.AutoAck,
		cfg.Exclusive,
		cfg.NoLocal,
		cfg.NoWait,
		cfg.Args,
	)
}
