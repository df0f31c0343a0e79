package kafka_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkaadapter "fulfillment/internal/adapters/in/kafka"
	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type readerMock struct {
	mock.Mock
}

func (m *readerMock) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *readerMock) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *readerMock) Close() error {
	return m.Called().Error(0)
}

type handlerMock struct {
	mock.Mock
}

func (m *handlerMock) Handle(ctx context.Context, cmd commands.HandlePaymentResultCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type guardStub struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newGuard(keys ...string) *guardStub {
	g := &guardStub{seen: make(map[string]bool)}
	for _, k := range keys {
		g.seen[k] = true
	}
	return g
}

func (g *guardStub) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *guardStub) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, key)
	return nil
}

func (g *guardStub) has(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen[key]
}

func event(offset int64, body string) kafka.Message {
	return kafka.Message{Topic: "payment.results", Partition: 0, Offset: offset, Value: []byte(body)}
}

func confirmed(eventID string, orderID kernel.UUID) string {
	return `{"event_id":"` + eventID + `","event_type":"PaymentConfirmed","payload":{"order_id":"` + orderID.String() + `"}}`
}

// deliver queues msgs on the reader, then cancels ctx on the following fetch.
func deliver(reader *readerMock, cancel context.CancelFunc, msgs ...kafka.Message) {
	for _, m := range msgs {
		reader.On("FetchMessage", mock.Anything).Return(m, nil).Once()
	}
	reader.On("FetchMessage", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(kafka.Message{}, context.Canceled).Once()
}

func committed(offset int64) any {
	return mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 && msgs[0].Offset == offset
	})
}

func forOrder(orderID kernel.UUID, result fulfillment.PaymentResult) any {
	return mock.MatchedBy(func(cmd commands.HandlePaymentResultCommand) bool {
		return cmd.OrderID().IsEqual(orderID) && cmd.Result() == result
	})
}

func newConsumer(t *testing.T, reader *readerMock, handler *handlerMock, guard *guardStub) *kafkaadapter.PaymentConsumer {
	t.Helper()
	c, err := kafkaadapter.NewPaymentConsumerWithReader(reader, handler, guard, time.Hour,
		kafkaadapter.WithRetryBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
	require.NoError(t, err)
	return c
}

func TestPaymentConsumer_HandlesAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	orderID := kernel.NewUUID()

	reader, handler, guard := new(readerMock), new(handlerMock), newGuard()
	deliver(reader, cancel,
		event(7, confirmed("evt-1", orderID)),
		event(8, `{"event_id":"evt-2","event_type":"PaymentFailed","payload":{"order_id":"`+orderID.String()+`"}}`))
	reader.On("CommitMessages", mock.Anything, committed(7)).Return(nil).Once()
	reader.On("CommitMessages", mock.Anything, committed(8)).Return(nil).Once()
	handler.On("Handle", mock.Anything, forOrder(orderID, fulfillment.PaymentConfirmed)).Return(nil).Once()
	handler.On("Handle", mock.Anything, forOrder(orderID, fulfillment.PaymentFailed)).Return(nil).Once()

	require.NoError(t, newConsumer(t, reader, handler, guard).Run(ctx))

	reader.AssertExpectations(t)
	handler.AssertExpectations(t)
	assert.True(t, guard.has("payment:evt-1"))
}

func TestPaymentConsumer_SkipsDuplicateEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	reader, handler, guard := new(readerMock), new(handlerMock), newGuard("payment:evt-1")
	deliver(reader, cancel, event(3, confirmed("evt-1", kernel.NewUUID())))
	reader.On("CommitMessages", mock.Anything, committed(3)).Return(nil).Once()

	require.NoError(t, newConsumer(t, reader, handler, guard).Run(ctx))

	reader.AssertExpectations(t)
	handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestPaymentConsumer_DropsMalformedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	reader, handler, guard := new(readerMock), new(handlerMock), newGuard()
	deliver(reader, cancel,
		event(1, `not json`),
		event(2, `{"event_id":"evt-1","event_type":"PaymentRefunded","payload":{"order_id":"`+kernel.NewUUID().String()+`"}}`),
		event(3, `{"event_id":"evt-2","event_type":"PaymentConfirmed","payload":{"order_id":"42"}}`),
		event(4, `{"event_type":"PaymentConfirmed","payload":{"order_id":"`+kernel.NewUUID().String()+`"}}`))
	for offset := int64(1); offset <= 4; offset++ {
		reader.On("CommitMessages", mock.Anything, committed(offset)).Return(nil).Once()
	}

	require.NoError(t, newConsumer(t, reader, handler, guard).Run(ctx))

	reader.AssertExpectations(t)
	handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestPaymentConsumer_PermanentErrorIsCommittedWithoutRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	orderID := kernel.NewUUID()

	reader, handler, guard := new(readerMock), new(handlerMock), newGuard()
	deliver(reader, cancel, event(5, confirmed("evt-1", orderID)))
	reader.On("CommitMessages", mock.Anything, committed(5)).Return(nil).Once()
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(errs.NewObjectNotFoundError("orderId", orderID.String())).Once()

	require.NoError(t, newConsumer(t, reader, handler, guard).Run(ctx))

	reader.AssertExpectations(t)
	handler.AssertNumberOfCalls(t, "Handle", 1)
}

func TestPaymentConsumer_RecordedFailureKeepsKey(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	reader, handler, guard := new(readerMock), new(handlerMock), newGuard()
	deliver(reader, cancel, event(5, confirmed("evt-1", kernel.NewUUID())))
	reader.On("CommitMessages", mock.Anything, committed(5)).Return(nil).Once()
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(&fulfillment.RecordedFailureError{Err: errors.New("out of stock")}).Once()

	require.NoError(t, newConsumer(t, reader, handler, guard).Run(ctx))

	reader.AssertExpectations(t)
	assert.True(t, guard.has("payment:evt-1"))
}

func TestPaymentConsumer_RetriesTransientError(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	orderID := kernel.NewUUID()

	reader, handler, guard := new(readerMock), new(handlerMock), newGuard()
	deliver(reader, cancel, event(9, confirmed("evt-1", orderID)))
	reader.On("CommitMessages", mock.Anything, committed(9)).Return(nil).Once()
	handler.On("Handle", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Twice()
	handler.On("Handle", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, newConsumer(t, reader, handler, guard).Run(ctx))

	reader.AssertExpectations(t)
	handler.AssertNumberOfCalls(t, "Handle", 3)
	assert.True(t, guard.has("payment:evt-1"))
}

func TestPaymentConsumer_CancelledRetryIsNotCommitted(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	reader, handler, guard := new(readerMock), new(handlerMock), newGuard()
	reader.On("FetchMessage", mock.Anything).Return(event(11, confirmed("evt-1", kernel.NewUUID())), nil).Once()
	handler.On("Handle", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(errors.New("connection reset")).Once()

	require.NoError(t, newConsumer(t, reader, handler, guard).Run(ctx))

	reader.AssertNotCalled(t, "CommitMessages", mock.Anything, mock.Anything)
	assert.False(t, guard.has("payment:evt-1"))
}

func TestPaymentConsumer_FetchError(t *testing.T) {
	reader, handler, guard := new(readerMock), new(handlerMock), newGuard()
	reader.On("FetchMessage", mock.Anything).Return(kafka.Message{}, errors.New("broker gone")).Once()

	err := newConsumer(t, reader, handler, guard).Run(t.Context())
	require.ErrorContains(t, err, "broker gone")
}

func TestNewPaymentConsumerWithReader_Validation(t *testing.T) {
	_, err := kafkaadapter.NewPaymentConsumerWithReader(new(readerMock), nil, newGuard(), time.Hour)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = kafkaadapter.NewPaymentConsumerWithReader(new(readerMock), new(handlerMock), nil, time.Hour)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = kafkaadapter.NewPaymentConsumerWithReader(new(readerMock), new(handlerMock), newGuard(), 0)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewPaymentConsumer_Validation(t *testing.T) {
	_, err := kafkaadapter.NewPaymentConsumer(nil, "fulfillment", "payment.results", new(handlerMock), newGuard(), time.Hour)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = kafkaadapter.NewPaymentConsumer([]string{"localhost:9092"}, " ", "payment.results", new(handlerMock), newGuard(), time.Hour)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}
