package inbox

import (
	"github.com/cargolink/notification-service/internal/domain/port/store"
)

func NewInbox(notifications store.NotificationStore) (*UseCase, *Handler) {
	useCase := NewUseCase(notifications)
	handler := NewHandler(useCase)
	return useCase, handler
}
