package inbox

import (
	"context"
	"testing"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/infrastructure/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
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

func TestList_Pagination(t *testing.T) {
	testCases := []struct {
		name       string
		page       int
		size       int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", page: 0, size: 0, wantLimit: DefaultPageSize, wantOffset: 0},
		{name: "negative page clamps to first", page: -3, size: 10, wantLimit: 10, wantOffset: 0},
		{name: "third page", page: 3, size: 10, wantLimit: 10, wantOffset: 20},
		{name: "oversized page size is capped", page: 1, size: 500, wantLimit: MaxPageSize, wantOffset: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockNotificationStore)
			store.On("ListByRecipient", mock.Anything, int64(42), tc.wantLimit, tc.wantOffset).
				Return([]*domain.Notification{}, nil).Once()

			uc := NewUseCase(store)
			_, err := uc.List(context.Background(), 42, tc.page, tc.size)

			require.NoError(t, err)
			store.AssertExpectations(t)
		})
	}
}

func TestUnreadCount(t *testing.T) {
	store := new(MockNotificationStore)
	store.On("CountUnread", mock.Anything, int64(42)).Return(7, nil).Once()

	uc := NewUseCase(store)
	count, err := uc.UnreadCount(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestMarkRead_NotFound(t *testing.T) {
	store := new(MockNotificationStore)
	store.On("MarkRead", mock.Anything, int64(999)).Return(repository.ErrNotFound).Once()

	uc := NewUseCase(store)
	err := uc.MarkRead(context.Background(), 999)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMarkAllRead_Idempotent(t *testing.T) {
	store := new(MockNotificationStore)
	store.On("MarkAllRead", mock.Anything, int64(42)).Return(int64(5), nil).Once()
	store.On("MarkAllRead", mock.Anything, int64(42)).Return(int64(0), nil).Once()

	uc := NewUseCase(store)

	changed, err := uc.MarkAllRead(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(5), changed)

	// Second call finds nothing unread.
	changed, err = uc.MarkAllRead(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)
}

func TestDelete(t *testing.T) {
	store := new(MockNotificationStore)
	store.On("Delete", mock.Anything, int64(7)).Return(nil).Once()

	uc := NewUseCase(store)
	err := uc.Delete(context.Background(), 7)

	assert.NoError(t, err)
	store.AssertExpectations(t)
}
