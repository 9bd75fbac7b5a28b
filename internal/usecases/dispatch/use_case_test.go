package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockPreferenceReader struct {
	mock.Mock
}

func (m *MockPreferenceReader) GetEnabledChannels(ctx context.Context, userID int64) ([]domain.Channel, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Channel), args.Error(1)
}

type MockContactResolver struct {
	mock.Mock
}

func (m *MockContactResolver) Resolve(ctx context.Context, userID int64) (domain.RecipientContact, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.RecipientContact), args.Error(1)
}

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationStore) ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*domain.Notification, error) {
	args := m.Called(ctx, recipientID, limit, offset)
	return nil, args.Error(1)
}

func (m *MockNotificationStore) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Attempt(ctx context.Context, destination, title, body string) channel.Outcome {
	args := m.Called(ctx, destination, title, body)
	return args.Get(0).(channel.Outcome)
}

// --- Helpers ---

func fullContact() domain.RecipientContact {
	return domain.RecipientContact{
		Email:       "client@example.com",
		Phone:       "+5511999990000",
		DeviceToken: "device-token-0123456789abcdef",
	}
}

func baseInput() Input {
	return Input{
		EventID:       "evt-1",
		RecipientID:   42,
		RecipientType: domain.RecipientClient,
		Type:          domain.TypeBookingConfirmed,
		Message:       "Your booking is confirmed.",
	}
}

func recordMatcher(ch domain.Channel, status domain.DeliveryStatus, isRead bool) interface{} {
	return mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Channel == ch && n.DeliveryStatus == status && n.IsRead == isRead
	})
}

func newTestUseCase(prefs *MockPreferenceReader, contacts *MockContactResolver, notifs *MockNotificationStore, senders map[domain.Channel]channel.Sender) *UseCase {
	return NewUseCase(prefs, contacts, notifs, senders, make(chan struct{}, 4), time.Second)
}

// --- Tests ---

func TestExecute_InAppAlwaysDelivered(t *testing.T) {
	prefs := new(MockPreferenceReader)
	contacts := new(MockContactResolver)
	notifs := new(MockNotificationStore)

	prefs.On("GetEnabledChannels", mock.Anything, int64(42)).Return([]domain.Channel{domain.ChannelInApp}, nil)
	contacts.On("Resolve", mock.Anything, int64(42)).Return(fullContact(), nil)
	notifs.On("Create", mock.Anything, recordMatcher(domain.ChannelInApp, domain.StatusDelivered, false)).
		Return(&domain.Notification{ID: 1}, nil).Once()

	uc := newTestUseCase(prefs, contacts, notifs, map[domain.Channel]channel.Sender{})
	uc.Execute(context.Background(), baseInput())

	notifs.AssertExpectations(t)
}

func TestExecute_SuccessfulExternalChannelIsSentAndRead(t *testing.T) {
	prefs := new(MockPreferenceReader)
	contacts := new(MockContactResolver)
	notifs := new(MockNotificationStore)
	email := new(MockSender)

	prefs.On("GetEnabledChannels", mock.Anything, int64(42)).Return([]domain.Channel{domain.ChannelEmail}, nil)
	contacts.On("Resolve", mock.Anything, int64(42)).Return(fullContact(), nil)
	email.On("Attempt", mock.Anything, "client@example.com", mock.Anything, mock.Anything).
		Return(channel.Success()).Once()
	notifs.On("Create", mock.Anything, recordMatcher(domain.ChannelEmail, domain.StatusSent, true)).
		Return(&domain.Notification{ID: 1}, nil).Once()

	uc := newTestUseCase(prefs, contacts, notifs, map[domain.Channel]channel.Sender{domain.ChannelEmail: email})
	uc.Execute(context.Background(), baseInput())

	email.AssertExpectations(t)
	notifs.AssertExpectations(t)
}

func TestExecute_FailedAttemptRecordsErrorMessage(t *testing.T) {
	prefs := new(MockPreferenceReader)
	contacts := new(MockContactResolver)
	notifs := new(MockNotificationStore)
	sms := new(MockSender)

	prefs.On("GetEnabledChannels", mock.Anything, int64(42)).Return([]domain.Channel{domain.ChannelSMS}, nil)
	contacts.On("Resolve", mock.Anything, int64(42)).Return(fullContact(), nil)
	sms.On("Attempt", mock.Anything, "+5511999990000", mock.Anything, mock.Anything).
		Return(channel.Failure(errors.New("gateway unavailable"))).Once()
	notifs.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Channel == domain.ChannelSMS &&
			n.DeliveryStatus == domain.StatusFailed &&
			!n.IsRead &&
			n.ErrorMessage != nil && *n.ErrorMessage == "gateway unavailable"
	})).Return(&domain.Notification{ID: 1}, nil).Once()

	uc := newTestUseCase(prefs, contacts, notifs, map[domain.Channel]channel.Sender{domain.ChannelSMS: sms})
	uc.Execute(context.Background(), baseInput())

	sms.AssertExpectations(t)
	notifs.AssertExpectations(t)
	// No retry: exactly one attempt was made.
	sms.AssertNumberOfCalls(t, "Attempt", 1)
}

func TestExecute_MissingDestinationSkipsSilently(t *testing.T) {
	prefs := new(MockPreferenceReader)
	contacts := new(MockContactResolver)
	notifs := new(MockNotificationStore)
	push := new(MockSender)

	contact := fullContact()
	contact.DeviceToken = ""

	prefs.On("GetEnabledChannels", mock.Anything, int64(42)).Return([]domain.Channel{domain.ChannelPush}, nil)
	contacts.On("Resolve", mock.Anything, int64(42)).Return(contact, nil)

	uc := newTestUseCase(prefs, contacts, notifs, map[domain.Channel]channel.Sender{domain.ChannelPush: push})
	uc.Execute(context.Background(), baseInput())

	// No sender call and no record for the skipped channel.
	push.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExecute_ChannelFailureIsIsolated(t *testing.T) {
	prefs := new(MockPreferenceReader)
	contacts := new(MockContactResolver)
	notifs := new(MockNotificationStore)
	email := new(MockSender)
	sms := new(MockSender)

	prefs.On("GetEnabledChannels", mock.Anything, int64(42)).
		Return([]domain.Channel{domain.ChannelEmail, domain.ChannelSMS, domain.ChannelInApp}, nil)
	contacts.On("Resolve", mock.Anything, int64(42)).Return(fullContact(), nil)

	email.On("Attempt", mock.Anything, "client@example.com", mock.Anything, mock.Anything).
		Return(channel.Failure(errors.New("smtp handshake failed"))).Once()
	sms.On("Attempt", mock.Anything, "+5511999990000", mock.Anything, mock.Anything).
		Return(channel.Success()).Once()

	notifs.On("Create", mock.Anything, recordMatcher(domain.ChannelEmail, domain.StatusFailed, false)).
		Return(&domain.Notification{ID: 1}, nil).Once()
	notifs.On("Create", mock.Anything, recordMatcher(domain.ChannelSMS, domain.StatusSent, true)).
		Return(&domain.Notification{ID: 2}, nil).Once()
	notifs.On("Create", mock.Anything, recordMatcher(domain.ChannelInApp, domain.StatusDelivered, false)).
		Return(&domain.Notification{ID: 3}, nil).Once()

	uc := newTestUseCase(prefs, contacts, notifs, map[domain.Channel]channel.Sender{
		domain.ChannelEmail: email,
		domain.ChannelSMS:   sms,
	})
	uc.Execute(context.Background(), baseInput())

	email.AssertExpectations(t)
	sms.AssertExpectations(t)
	notifs.AssertExpectations(t)
}

func TestExecute_PersistFailureDoesNotPropagate(t *testing.T) {
	prefs := new(MockPreferenceReader)
	contacts := new(MockContactResolver)
	notifs := new(MockNotificationStore)

	prefs.On("GetEnabledChannels", mock.Anything, int64(42)).Return([]domain.Channel{domain.ChannelInApp}, nil)
	contacts.On("Resolve", mock.Anything, int64(42)).Return(fullContact(), nil)
	notifs.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	uc := newTestUseCase(prefs, contacts, notifs, map[domain.Channel]channel.Sender{})

	assert.NotPanics(t, func() {
		uc.Execute(context.Background(), baseInput())
	})
	notifs.AssertExpectations(t)
}

func TestExecute_PreferenceErrorFallsBackToInApp(t *testing.T) {
	prefs := new(MockPreferenceReader)
	contacts := new(MockContactResolver)
	notifs := new(MockNotificationStore)

	prefs.On("GetEnabledChannels", mock.Anything, int64(42)).Return(nil, errors.New("database down"))
	contacts.On("Resolve", mock.Anything, int64(42)).Return(fullContact(), nil)
	notifs.On("Create", mock.Anything, recordMatcher(domain.ChannelInApp, domain.StatusDelivered, false)).
		Return(&domain.Notification{ID: 1}, nil).Once()

	uc := newTestUseCase(prefs, contacts, notifs, map[domain.Channel]channel.Sender{})
	uc.Execute(context.Background(), baseInput())

	notifs.AssertExpectations(t)
}

func TestExecute_NoSenderRegisteredRecordsFailure(t *testing.T) {
	prefs := new(MockPreferenceReader)
	contacts := new(MockContactResolver)
	notifs := new(MockNotificationStore)

	prefs.On("GetEnabledChannels", mock.Anything, int64(42)).Return([]domain.Channel{domain.ChannelPush}, nil)
	contacts.On("Resolve", mock.Anything, int64(42)).Return(fullContact(), nil)
	notifs.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Channel == domain.ChannelPush &&
			n.DeliveryStatus == domain.StatusFailed &&
			n.ErrorMessage != nil && *n.ErrorMessage == noSenderError
	})).Return(&domain.Notification{ID: 1}, nil).Once()

	uc := newTestUseCase(prefs, contacts, notifs, map[domain.Channel]channel.Sender{})
	uc.Execute(context.Background(), baseInput())

	notifs.AssertExpectations(t)
}

func TestExecute_PanicInSenderIsRecovered(t *testing.T) {
	prefs := new(MockPreferenceReader)
	contacts := new(MockContactResolver)
	notifs := new(MockNotificationStore)

	prefs.On("GetEnabledChannels", mock.Anything, int64(42)).
		Return([]domain.Channel{domain.ChannelEmail, domain.ChannelInApp}, nil)
	contacts.On("Resolve", mock.Anything, int64(42)).Return(fullContact(), nil)
	notifs.On("Create", mock.Anything, recordMatcher(domain.ChannelInApp, domain.StatusDelivered, false)).
		Return(&domain.Notification{ID: 1}, nil).Once()

	panicking := panicSender{}
	uc := newTestUseCase(prefs, contacts, notifs, map[domain.Channel]channel.Sender{domain.ChannelEmail: panicking})

	require.NotPanics(t, func() {
		uc.Execute(context.Background(), baseInput())
	})
	notifs.AssertExpectations(t)
}

type panicSender struct{}

func (panicSender) Attempt(ctx context.Context, destination, title, body string) channel.Outcome {
	panic("sender blew up")
}
