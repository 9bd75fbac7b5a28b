package notifier

import (
	"github.com/cargolink/notification-service/internal/domain/port/broker"
	"github.com/cargolink/notification-service/internal/usecases/composer"
	"github.com/cargolink/notification-service/internal/usecases/dispatch"
)

func NewNotifier(messageBroker broker.MessageBroker, dispatcher dispatch.UseCaseInterface, texts *composer.TextBuilder) (*UseCase, *Handler) {
	useCase := NewUseCase(messageBroker, dispatcher, texts)
	handler := NewHandler(useCase)
	return useCase, handler
}
