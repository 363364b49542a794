package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *publisherMock) Close() error {
	return nil
}

func TestEmitBuildsEnvelope(t *testing.T) {
	pub := &publisherMock{}
	emitter := NewEmitter(pub, "bee-social", "test")
	emitter.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	var got EventEnvelope
	pub.On("Publish", mock.Anything, EventChatMessageSent, mock.AnythingOfType("telemetry.EventEnvelope")).
		Run(func(args mock.Arguments) { got = args.Get(2).(EventEnvelope) }).
		Return(nil).Once()

	emitter.Emit(context.Background(), EventChatMessageSent, "req-1", "user-1", map[string]int{"chatId": 4})

	pub.AssertExpectations(t)
	assert.Equal(t, 1, got.SchemaVersion)
	assert.Equal(t, EventChatMessageSent, got.EventType)
	assert.Equal(t, "2024-05-01T12:00:00Z", got.OccurredAt)
	assert.Equal(t, "bee-social", got.Service)
	assert.Equal(t, "req-1", got.RequestID)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "user-1", *got.UserID)
	assert.NotEmpty(t, got.EventID)
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	pub := &publisherMock{}
	pub.On("Publish", mock.Anything, EventChatRead, mock.Anything).Return(errors.New("broker down")).Once()

	emitter := NewEmitter(pub, "bee-social", "test")
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), EventChatRead, "", "", nil)
	})
	pub.AssertExpectations(t)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *Emitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), EventPostCreated, "", "", nil)
	})
}
