package kafka_test

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkaadapter "fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type writerMock struct {
	mock.Mock
}

func (m *writerMock) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *writerMock) Close() error {
	return m.Called().Error(0)
}

func TestPublisher_Publish(t *testing.T) {
	orderID := kernel.NewUUID()
	eventID := kernel.NewUUID()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	writer := new(writerMock)
	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		m := msgs[0]
		return string(m.Key) == orderID.String() &&
			string(m.Value) == `{"to":"placed"}` &&
			m.Time.Equal(at) &&
			string(m.Headers[0].Value) == eventID.String() &&
			string(m.Headers[1].Value) == order.StatusChangedEventName
	})).Return(nil).Once()

	p := kafkaadapter.NewPublisherWithWriter(writer)
	err := p.Publish(t.Context(), []ports.OutboxMessage{{
		ID:          eventID,
		AggregateID: orderID,
		EventName:   order.StatusChangedEventName,
		Payload:     []byte(`{"to":"placed"}`),
		OccurredAt:  at,
	}})

	require.NoError(t, err)
	writer.AssertExpectations(t)
}

func TestPublisher_PublishEmptyBatch(t *testing.T) {
	writer := new(writerMock)
	p := kafkaadapter.NewPublisherWithWriter(writer)

	require.NoError(t, p.Publish(t.Context(), nil))
	writer.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}

func TestPublisher_WriteFailure(t *testing.T) {
	writer := new(writerMock)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available"))

	p := kafkaadapter.NewPublisherWithWriter(writer)
	err := p.Publish(t.Context(), []ports.OutboxMessage{{ID: kernel.NewUUID(), AggregateID: kernel.NewUUID()}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestNewPublisher_Validates(t *testing.T) {
	_, err := kafkaadapter.NewPublisher(nil, "orders")
	require.Error(t, err)

	_, err = kafkaadapter.NewPublisher([]string{"localhost:9092"}, "")
	require.Error(t, err)
}
