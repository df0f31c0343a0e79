// Package kafka consumes payment outcomes from a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventPaymentConfirmed = "PaymentConfirmed"
	EventPaymentFailed    = "PaymentFailed"

	dedupKeyPrefix = "payment:"
)

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PaymentResultHandler interface {
	Handle(ctx context.Context, cmd commands.HandlePaymentResultCommand) error
}

// envelope is the wire format of a payment event.
type envelope struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Payload   struct {
		OrderID string `json:"order_id"`
	} `json:"payload"`
}

type ConsumerOption func(*PaymentConsumer)

// WithRetryBackOff replaces the back-off between attempts on a transient failure.
func WithRetryBackOff(newBackOff func() backoff.BackOff) ConsumerOption {
	return func(c *PaymentConsumer) {
		c.newBackOff = newBackOff
	}
}

func WithConsumerLogger(logger *zap.Logger) ConsumerOption {
	return func(c *PaymentConsumer) {
		c.logger = logger
	}
}

// PaymentConsumer applies payment events one at a time and commits each offset after the
// event is handled. A transient failure is retried until it succeeds or the context ends,
// so a partition never skips ahead of an unhandled event.
type PaymentConsumer struct {
	reader     messageReader
	handler    PaymentResultHandler
	guard      ports.IdempotencyGuard
	dedupTTL   time.Duration
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
}

func NewPaymentConsumer(
	brokers []string,
	groupID, topic string,
	handler PaymentResultHandler,
	guard ports.IdempotencyGuard,
	dedupTTL time.Duration,
	opts ...ConsumerOption,
) (*PaymentConsumer, error) {
	if len(brokers) == 0 {
		return nil, errs.NewValueIsRequiredError("kafka brokers")
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, errs.NewValueIsRequiredError("kafka consumer group")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errs.NewValueIsRequiredError("kafka topic")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return NewPaymentConsumerWithReader(reader, handler, guard, dedupTTL, opts...)
}

func NewPaymentConsumerWithReader(
	reader messageReader,
	handler PaymentResultHandler,
	guard ports.IdempotencyGuard,
	dedupTTL time.Duration,
	opts ...ConsumerOption,
) (*PaymentConsumer, error) {
	if handler == nil {
		return nil, errs.NewValueIsRequiredError("payment result handler")
	}
	if guard == nil {
		return nil, errs.NewValueIsRequiredError("idempotency guard")
	}
	if dedupTTL <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("dedup ttl", fmt.Errorf("%s is not positive", dedupTTL))
	}

	c := &PaymentConsumer{
		reader:   reader,
		handler:  handler,
		guard:    guard,
		dedupTTL: dedupTTL,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "payment_consumer"))
	return c, nil
}

// Run consumes until ctx is done. It returns nil on cancellation and the error otherwise.
func (c *PaymentConsumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch payment event: %w", err)
		}

		if err := c.process(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit payment event at offset %d: %w", m.Offset, err)
		}
	}
}

func (c *PaymentConsumer) Close() error {
	return c.reader.Close()
}

// process returns an error only when the message must not be committed.
func (c *PaymentConsumer) process(ctx context.Context, m kafka.Message) error {
	logger := c.logger.With(zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset))

	eventID, cmd, err := decode(m.Value)
	if err != nil {
		logger.Warn("dropping malformed payment event", zap.Error(err))
		return nil
	}
	logger = logger.With(zap.String("event_id", eventID), zap.String("order_id", cmd.OrderID().String()))
	key := dedupKeyPrefix + eventID

	var duplicate bool
	operation := func() error {
		first, err := c.guard.Acquire(ctx, key, c.dedupTTL)
		if err != nil {
			return err
		}
		if !first {
			duplicate = true
			return nil
		}

		err = c.handler.Handle(ctx, cmd)
		if err == nil || fulfillment.IsRecordedFailure(err) {
			if err != nil {
				logger.Info("payment event recorded a failure", zap.Error(err))
			}
			return nil
		}

		if releaseErr := c.guard.Release(ctx, key); releaseErr != nil {
			logger.Warn("failed to release payment event key", zap.Error(releaseErr))
		}
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		logger.Warn("payment event failed, retrying", zap.Error(err))
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("dropping payment event", zap.Error(err))
		return nil
	}
	if duplicate {
		logger.Debug("skipping duplicate payment event")
	}
	return nil
}

func decode(value []byte) (string, commands.HandlePaymentResultCommand, error) {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return "", commands.HandlePaymentResultCommand{}, errs.NewValueIsInvalidErrorWithCause("payment event", err)
	}
	eventID := strings.TrimSpace(env.EventID)
	if eventID == "" {
		return "", commands.HandlePaymentResultCommand{}, errs.NewValueIsRequiredError("event_id")
	}

	var result fulfillment.PaymentResult
	switch env.EventType {
	case EventPaymentConfirmed:
		result = fulfillment.PaymentConfirmed
	case EventPaymentFailed:
		result = fulfillment.PaymentFailed
	default:
		return "", commands.HandlePaymentResultCommand{}, errs.NewValueIsInvalidError("event_type")
	}

	orderID, err := kernel.UUIDFromString(env.Payload.OrderID)
	if err != nil {
		return "", commands.HandlePaymentResultCommand{}, err
	}
	cmd, err := commands.NewHandlePaymentResultCommand(orderID, result)
	if err != nil {
		return "", commands.HandlePaymentResultCommand{}, err
	}
	return eventID, cmd, nil
}

// isPermanent reports errors that no redelivery can fix.
func isPermanent(err error) bool {
	return errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, errs.ErrValueIsInvalid) ||
		errors.Is(err, errs.ErrValueIsRequired) ||
		errors.Is(err, order.ErrInvalidTransition)
}
