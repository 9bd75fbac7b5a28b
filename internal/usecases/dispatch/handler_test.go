package dispatch

import (
	"context"
	"testing"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/broker"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockMessage struct {
	mock.Mock
	event domain.DispatchEvent
}

func (m *MockMessage) Data() domain.DispatchEvent {
	return m.event
}

func (m *MockMessage) Ack(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMessage) MoveToDLQ(ctx context.Context, processingError error) error {
	args := m.Called(ctx, processingError)
	return args.Error(0)
}

func (m *MockMessage) Headers() []kafka.Header {
	return nil
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Execute(ctx context.Context, input Input) {
	m.Called(ctx, input)
}

func validEvent() domain.DispatchEvent {
	return domain.DispatchEvent{
		ID:            "evt-1",
		RecipientID:   42,
		RecipientType: domain.RecipientClient,
		Type:          domain.TypeBookingConfirmed,
		Message:       "Your booking is confirmed.",
	}
}

func TestHandle_ValidEventIsDispatchedAndAcked(t *testing.T) {
	dispatcher := new(MockDispatcher)
	msg := &MockMessage{event: validEvent()}

	dispatcher.On("Execute", mock.Anything, mock.MatchedBy(func(in Input) bool {
		return in.EventID == "evt-1" && in.RecipientID == 42 && in.Type == domain.TypeBookingConfirmed
	})).Once()
	msg.On("Ack", mock.Anything).Return(nil).Once()

	h := NewEventHandler(dispatcher)
	err := h.Handle(context.Background(), msg)

	assert.NoError(t, err)
	dispatcher.AssertExpectations(t)
	msg.AssertExpectations(t)
}

func TestHandle_InvalidEventGoesToDLQ(t *testing.T) {
	testCases := []struct {
		name  string
		event domain.DispatchEvent
	}{
		{
			name: "zero recipient id",
			event: domain.DispatchEvent{
				ID:            "evt-2",
				RecipientID:   0,
				RecipientType: domain.RecipientClient,
				Type:          domain.TypeBookingConfirmed,
			},
		},
		{
			name: "unknown recipient type",
			event: domain.DispatchEvent{
				ID:            "evt-3",
				RecipientID:   42,
				RecipientType: domain.RecipientType("ROBOT"),
				Type:          domain.TypeBookingConfirmed,
			},
		},
		{
			name: "missing type",
			event: domain.DispatchEvent{
				ID:            "evt-4",
				RecipientID:   42,
				RecipientType: domain.RecipientClient,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dispatcher := new(MockDispatcher)
			msg := &MockMessage{event: tc.event}
			msg.On("MoveToDLQ", mock.Anything, mock.Anything).Return(nil).Once()

			h := NewEventHandler(dispatcher)
			err := h.Handle(context.Background(), msg)

			assert.NoError(t, err)
			dispatcher.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
			msg.AssertExpectations(t)
		})
	}
}

var _ broker.Message = (*MockMessage)(nil)
