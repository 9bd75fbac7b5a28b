package notifier

import (
	"net/http"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/observability/metrics"
	"github.com/cargolink/notification-service/internal/observability/tracing"
	"github.com/gin-gonic/gin"
)

// Handler exposes the dispatch submission endpoint used by business services
// that integrate over HTTP instead of calling the facade in-process.
type Handler struct {
	useCase UseCaseInterface
}

func NewHandler(useCase UseCaseInterface) *Handler {
	return &Handler{useCase: useCase}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/dispatch", h.Dispatch)
}

// Dispatch accepts one dispatch event and returns 202 immediately. Delivery
// outcomes are observable through the recipient's notification list, not
// through this endpoint.
func (h *Handler) Dispatch(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "NotifierHandler.Dispatch")
	defer span.End()

	var input DispatchRequestDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	req := Request{
		RecipientID:   input.RecipientID,
		RecipientType: domain.RecipientType(input.RecipientType),
		Type:          domain.NotificationType(input.Type),
		Message:       input.Message,
		ReferenceID:   input.ReferenceID,
		Metadata:      input.Metadata,
	}
	if input.ReferenceType != nil {
		refType := domain.ReferenceType(*input.ReferenceType)
		req.ReferenceType = &refType
	}

	metrics.DispatchesReceived.WithLabelValues("http").Inc()

	eventID, err := h.useCase.Submit(ctx, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, DispatchResponseDTO{EventID: eventID, Status: "accepted"})
}
