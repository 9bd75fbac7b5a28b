package notifier

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockNotifierUseCase struct {
	mock.Mock
}

func (m *MockNotifierUseCase) Submit(ctx context.Context, req Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockNotifierUseCase) NotifyBookingCreated(ctx context.Context, providerID, bookingID int64) {
	m.Called(ctx, providerID, bookingID)
}

func (m *MockNotifierUseCase) NotifyBookingConfirmed(ctx context.Context, clientID, bookingID int64) {
	m.Called(ctx, clientID, bookingID)
}

func (m *MockNotifierUseCase) NotifyBookingCancelled(ctx context.Context, recipientID int64, recipientType domain.RecipientType, bookingID int64) {
	m.Called(ctx, recipientID, recipientType, bookingID)
}

func (m *MockNotifierUseCase) NotifyOfferReceived(ctx context.Context, clientID, offerID, bookingID int64) {
	m.Called(ctx, clientID, offerID, bookingID)
}

func (m *MockNotifierUseCase) NotifyOfferAccepted(ctx context.Context, providerID, offerID, bookingID int64) {
	m.Called(ctx, providerID, offerID, bookingID)
}

func (m *MockNotifierUseCase) NotifyOfferRejected(ctx context.Context, providerID, offerID, bookingID int64) {
	m.Called(ctx, providerID, offerID, bookingID)
}

func (m *MockNotifierUseCase) NotifyTripStarted(ctx context.Context, clientID, bookingID int64) {
	m.Called(ctx, clientID, bookingID)
}

func (m *MockNotifierUseCase) NotifyTripCompleted(ctx context.Context, clientID, bookingID int64) {
	m.Called(ctx, clientID, bookingID)
}

func (m *MockNotifierUseCase) NotifyPaymentSuccessful(ctx context.Context, clientID, paymentID int64, amount float64, currency string) {
	m.Called(ctx, clientID, paymentID, amount, currency)
}

func (m *MockNotifierUseCase) NotifyPaymentFailed(ctx context.Context, clientID, paymentID int64, amount float64, currency string) {
	m.Called(ctx, clientID, paymentID, amount, currency)
}

func (m *MockNotifierUseCase) NotifyReceiptGenerated(ctx context.Context, clientID, paymentID int64) {
	m.Called(ctx, clientID, paymentID)
}

func setupTestRouter() (*gin.Engine, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	r := gin.New()
	return r, w
}

func TestDispatchHandler(t *testing.T) {
	tests := []struct {
		name               string
		body               []byte
		mockSetup          func(*MockNotifierUseCase)
		expectedStatusCode int
		expectedBody       string
	}{
		{
			name: "accepted",
			body: []byte(`{"recipient_id":42,"recipient_type":"CLIENT","type":"GENERAL","message":"hi"}`),
			mockSetup: func(muc *MockNotifierUseCase) {
				muc.On("Submit", mock.Anything, mock.MatchedBy(func(req Request) bool {
					return req.RecipientID == 42 &&
						req.RecipientType == domain.RecipientClient &&
						req.Type == domain.TypeGeneral
				})).Return("evt-abc", nil).Once()
			},
			expectedStatusCode: http.StatusAccepted,
			expectedBody:       `"event_id":"evt-abc"`,
		},
		{
			name:               "malformed json",
			body:               []byte(`{not json`),
			mockSetup:          nil,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `"error":"Invalid request payload`,
		},
		{
			name:               "missing recipient id",
			body:               []byte(`{"recipient_type":"CLIENT","type":"GENERAL"}`),
			mockSetup:          nil,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `"error"`,
		},
		{
			name: "rejected by use case",
			body: []byte(`{"recipient_id":42,"recipient_type":"ROBOT","type":"GENERAL"}`),
			mockSetup: func(muc *MockNotifierUseCase) {
				muc.On("Submit", mock.Anything, mock.Anything).
					Return("", assert.AnError).Once()
			},
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `"error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUseCase := new(MockNotifierUseCase)
			if tt.mockSetup != nil {
				tt.mockSetup(mockUseCase)
			}

			handler := NewHandler(mockUseCase)
			router, w := setupTestRouter()
			handler.RegisterRoutes(router)

			req, _ := http.NewRequest(http.MethodPost, "/dispatch", bytes.NewBuffer(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatusCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockUseCase.AssertExpectations(t)
		})
	}
}
