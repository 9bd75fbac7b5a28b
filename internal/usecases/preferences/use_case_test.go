package preferences

import (
	"context"
	"errors"
	"testing"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPreferenceStore struct {
	mock.Mock
}

func (m *MockPreferenceStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Preference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Preference), args.Error(1)
}

func (m *MockPreferenceStore) Upsert(ctx context.Context, userID int64, ch domain.Channel, enabled bool) error {
	args := m.Called(ctx, userID, ch, enabled)
	return args.Error(0)
}

func (m *MockPreferenceStore) DeleteByUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func pref(ch domain.Channel, enabled bool) *domain.Preference {
	return &domain.Preference{UserID: 42, Channel: ch, Enabled: enabled}
}

func TestGetEnabledChannels(t *testing.T) {
	testCases := []struct {
		name     string
		rows     []*domain.Preference
		expected []domain.Channel
	}{
		{
			name:     "no rows defaults to exactly in-app",
			rows:     []*domain.Preference{},
			expected: []domain.Channel{domain.ChannelInApp},
		},
		{
			name: "only enabled rows are returned",
			rows: []*domain.Preference{
				pref(domain.ChannelEmail, true),
				pref(domain.ChannelSMS, false),
				pref(domain.ChannelInApp, true),
			},
			expected: []domain.Channel{domain.ChannelEmail, domain.ChannelInApp},
		},
		{
			name: "explicitly disabling everything yields an empty set",
			rows: []*domain.Preference{
				pref(domain.ChannelInApp, false),
				pref(domain.ChannelEmail, false),
			},
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockPreferenceStore)
			repo.On("ListByUser", mock.Anything, int64(42)).Return(tc.rows, nil).Once()

			uc := NewUseCase(repo, nil)
			channels, err := uc.GetEnabledChannels(context.Background(), 42)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, channels)
			repo.AssertExpectations(t)
		})
	}
}

func TestGetEnabledChannels_StoreError(t *testing.T) {
	repo := new(MockPreferenceStore)
	repo.On("ListByUser", mock.Anything, int64(42)).Return(nil, errors.New("database down")).Once()

	uc := NewUseCase(repo, nil)
	_, err := uc.GetEnabledChannels(context.Background(), 42)

	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	t.Run("valid channel is upserted", func(t *testing.T) {
		repo := new(MockPreferenceStore)
		repo.On("Upsert", mock.Anything, int64(42), domain.ChannelSMS, true).Return(nil).Once()

		uc := NewUseCase(repo, nil)
		err := uc.Update(context.Background(), 42, domain.ChannelSMS, true)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("unknown channel is rejected before the store", func(t *testing.T) {
		repo := new(MockPreferenceStore)

		uc := NewUseCase(repo, nil)
		err := uc.Update(context.Background(), 42, domain.Channel("CARRIER_PIGEON"), true)

		assert.ErrorIs(t, err, ErrInvalidChannel)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBulkUpdate_ContinuesAfterFailure(t *testing.T) {
	repo := new(MockPreferenceStore)
	repo.On("Upsert", mock.Anything, int64(42), domain.ChannelEmail, true).Return(errors.New("write failed")).Once()
	repo.On("Upsert", mock.Anything, int64(42), domain.ChannelSMS, false).Return(nil).Once()

	uc := NewUseCase(repo, nil)
	err := uc.BulkUpdate(context.Background(), 42, map[domain.Channel]bool{
		domain.ChannelEmail: true,
		domain.ChannelSMS:   false,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "EMAIL")
	// The SMS write still happened despite the EMAIL failure.
	repo.AssertExpectations(t)
}

func TestInitializeDefaults(t *testing.T) {
	repo := new(MockPreferenceStore)
	repo.On("Upsert", mock.Anything, int64(42), domain.ChannelInApp, true).Return(nil).Once()
	repo.On("Upsert", mock.Anything, int64(42), domain.ChannelEmail, true).Return(nil).Once()
	repo.On("Upsert", mock.Anything, int64(42), domain.ChannelSMS, false).Return(nil).Once()
	repo.On("Upsert", mock.Anything, int64(42), domain.ChannelPush, false).Return(nil).Once()

	uc := NewUseCase(repo, nil)
	err := uc.InitializeDefaults(context.Background(), 42)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDisableAll(t *testing.T) {
	repo := new(MockPreferenceStore)
	for _, ch := range domain.AllChannels() {
		repo.On("Upsert", mock.Anything, int64(42), ch, false).Return(nil).Once()
	}

	uc := NewUseCase(repo, nil)
	err := uc.DisableAll(context.Background(), 42)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestIsChannelEnabled(t *testing.T) {
	repo := new(MockPreferenceStore)
	repo.On("ListByUser", mock.Anything, int64(42)).Return([]*domain.Preference{
		pref(domain.ChannelEmail, true),
		pref(domain.ChannelSMS, false),
	}, nil)

	uc := NewUseCase(repo, nil)

	enabled, err := uc.IsChannelEnabled(context.Background(), 42, domain.ChannelEmail)
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = uc.IsChannelEnabled(context.Background(), 42, domain.ChannelSMS)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestDeleteAll(t *testing.T) {
	repo := new(MockPreferenceStore)
	repo.On("DeleteByUser", mock.Anything, int64(42)).Return(nil).Once()

	uc := NewUseCase(repo, nil)
	err := uc.DeleteAll(context.Background(), 42)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
