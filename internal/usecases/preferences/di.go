package preferences

import (
	"github.com/cargolink/notification-service/internal/domain/port/store"
	"github.com/cargolink/notification-service/internal/infrastructure/cache"
)

func NewPreferences(repo store.PreferenceStore, prefCache *cache.PreferenceCache) (*UseCase, *Handler) {
	useCase := NewUseCase(repo, prefCache)
	handler := NewHandler(useCase)
	return useCase, handler
}
