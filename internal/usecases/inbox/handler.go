package inbox

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/infrastructure/repository"
	"github.com/cargolink/notification-service/internal/observability/tracing"
	"github.com/cargolink/notification-service/pkg/logger"
	"go.uber.org/zap"
)

// Handler exposes the inbox query API.
type Handler struct {
	useCase UseCaseInterface
}

func NewHandler(useCase UseCaseInterface) *Handler {
	return &Handler{useCase: useCase}
}

// RegisterRoutes mounts the inbox endpoints on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	user := rg.Group("/users/:userID/notifications")
	user.GET("", h.List)
	user.GET("/unread-count", h.UnreadCount)
	user.POST("/read-all", h.MarkAllRead)

	rg.PATCH("/notifications/:id/read", h.MarkRead)
	rg.DELETE("/notifications/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "InboxHandler.List")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))

	notifications, err := h.useCase.List(ctx, userID, page, size)
	if err != nil {
		h.serverError(c, "list notifications", err)
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"page":          page,
		"size":          size,
	})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "InboxHandler.UnreadCount")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	count, err := h.useCase.UnreadCount(ctx, userID)
	if err != nil {
		h.serverError(c, "count unread notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "InboxHandler.MarkRead")
	defer span.End()

	id, ok := parseNotificationID(c)
	if !ok {
		return
	}

	if err := h.useCase.MarkRead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		h.serverError(c, "mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_read": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "InboxHandler.MarkAllRead")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	updated, err := h.useCase.MarkAllRead(ctx, userID)
	if err != nil {
		h.serverError(c, "mark all notifications read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "updated": updated})
}

func (h *Handler) Delete(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "InboxHandler.Delete")
	defer span.End()

	id, ok := parseNotificationID(c)
	if !ok {
		return
	}

	if err := h.useCase.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		h.serverError(c, "delete notification", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) serverError(c *gin.Context, op string, err error) {
	logger.L().Error("Inbox operation failed",
		zap.String("operation", op),
		zap.String("traceID", logger.TraceIDFromContext(c.Request.Context())),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op})
}

func parseUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return 0, false
	}
	return userID, true
}

func parseNotificationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return 0, false
	}
	return id, true
}
