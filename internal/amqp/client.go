package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

var errBadMessage = errors.New("unprocessable message")

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	// Declare exchange
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

func (c *Client) publish(ctx context.Context, msgType string, payload any) error {
	envelope, err := newEnvelope(msgType, payload)
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}
	body, err := envelope.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // make message persistent
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

// PublishLedgerEntry announces a new transaction for the spreadsheet mirror.
func (c *Client) PublishLedgerEntry(ctx context.Context, id int64, owner string) error {
	if err := c.publish(ctx, TypeLedgerEntry, LedgerEntryMessage{ID: id, Owner: owner}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published ledger entry message",
		"id", id,
		"owner", owner,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishPriceRefresh asks the worker to refetch one holding's price.
func (c *Client) PublishPriceRefresh(ctx context.Context, holdingID int64, owner string) error {
	if err := c.publish(ctx, TypePriceRefresh, PriceRefreshMessage{HoldingID: holdingID, Owner: owner}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published price refresh message",
		"holding_id", holdingID,
		"owner", owner,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Handlers routes consumed envelopes by type. Nil handlers reject their
// message type without requeueing.
type Handlers struct {
	LedgerEntry  func(*LedgerEntryMessage) error
	PriceRefresh func(*PriceRefreshMessage) error
}

// Consume delivers queued messages to the handlers until ctx is cancelled.
// Handler errors requeue the message; malformed or unexpected messages are
// dropped.
func (c *Client) Consume(ctx context.Context, handlers Handlers) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			envelope, err := EnvelopeFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := c.dispatch(envelope, handlers); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"type", envelope.Type)
				// requeue handler failures, drop undecodable messages
				delivery.Nack(false, !errors.Is(err, errBadMessage))
				continue
			}

			delivery.Ack(false) // acknowledge successful processing
			slog.InfoContext(ctx, "Successfully processed message", "type", envelope.Type)
		}
	}
}

func (c *Client) dispatch(envelope *Envelope, handlers Handlers) error {
	switch envelope.Type {
	case TypeLedgerEntry:
		if handlers.LedgerEntry == nil {
			return fmt.Errorf("%w: no handler for %s", errBadMessage, envelope.Type)
		}
		msg, err := envelope.LedgerEntry()
		if err != nil {
			return fmt.Errorf("%w: decode ledger entry: %v", errBadMessage, err)
		}
		return handlers.LedgerEntry(msg)
	case TypePriceRefresh:
		if handlers.PriceRefresh == nil {
			return fmt.Errorf("%w: no handler for %s", errBadMessage, envelope.Type)
		}
		msg, err := envelope.PriceRefresh()
		if err != nil {
			return fmt.Errorf("%w: decode price refresh: %v", errBadMessage, err)
		}
		return handlers.PriceRefresh(msg)
	default:
		return fmt.Errorf("%w: unknown type %q", errBadMessage, envelope.Type)
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
