package dispatch

import (
	"time"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/domain/port/channel"
	"github.com/cargolink/notification-service/internal/domain/port/store"
)

func NewDispatch(
	preferences PreferenceReader,
	contacts store.ContactResolver,
	notifications store.NotificationStore,
	senders map[domain.Channel]channel.Sender,
	workerPoolSize int,
	sendTimeout time.Duration,
) (*UseCase, *EventHandler) {
	if workerPoolSize <= 0 {
		workerPoolSize = 1
	}
	semaphore := make(chan struct{}, workerPoolSize)
	useCase := NewUseCase(preferences, contacts, notifications, senders, semaphore, sendTimeout)
	handler := NewEventHandler(useCase)
	return useCase, handler
}
