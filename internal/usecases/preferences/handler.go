package preferences

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cargolink/notification-service/internal/domain"
	"github.com/cargolink/notification-service/internal/observability/tracing"
	"github.com/cargolink/notification-service/pkg/logger"
	"go.uber.org/zap"
)

// Handler exposes the preference management API.
type Handler struct {
	useCase UseCaseInterface
}

func NewHandler(useCase UseCaseInterface) *Handler {
	return &Handler{useCase: useCase}
}

// RegisterRoutes mounts the preference endpoints on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	prefs := rg.Group("/users/:userID/preferences")
	prefs.GET("", h.GetAll)
	prefs.GET("/channels", h.GetEnabledChannels)
	prefs.GET("/map", h.GetAsMap)
	prefs.PUT("", h.BulkUpdate)
	prefs.PUT("/:channel", h.Update)
	prefs.POST("/:channel/enable", h.Enable)
	prefs.POST("/:channel/disable", h.Disable)
	prefs.POST("/disable-all", h.DisableAll)
	prefs.POST("/defaults", h.InitializeDefaults)
	prefs.DELETE("", h.DeleteAll)
}

type updateRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) GetAll(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "PreferenceHandler.GetAll")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	prefs, err := h.useCase.GetAll(ctx, userID)
	if err != nil {
		h.serverError(c, userID, "list preferences", err)
		return
	}
	if prefs == nil {
		prefs = []*domain.Preference{}
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

func (h *Handler) GetEnabledChannels(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "PreferenceHandler.GetEnabledChannels")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	channels, err := h.useCase.GetEnabledChannels(ctx, userID)
	if err != nil {
		h.serverError(c, userID, "get enabled channels", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (h *Handler) GetAsMap(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "PreferenceHandler.GetAsMap")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	m, err := h.useCase.GetAsMap(ctx, userID)
	if err != nil {
		h.serverError(c, userID, "get preference map", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": m})
}

func (h *Handler) Update(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "PreferenceHandler.Update")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	ch, ok := parseChannel(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	if err := h.useCase.Update(ctx, userID, ch, *req.Enabled); err != nil {
		if errors.Is(err, ErrInvalidChannel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.serverError(c, userID, "update preference", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "channel": ch, "enabled": *req.Enabled})
}

func (h *Handler) BulkUpdate(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "PreferenceHandler.BulkUpdate")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req map[domain.Channel]bool
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty preference map"})
		return
	}

	if err := h.useCase.BulkUpdate(ctx, userID, req); err != nil {
		if errors.Is(err, ErrInvalidChannel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.serverError(c, userID, "bulk update preferences", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "updated": len(req)})
}

func (h *Handler) Enable(c *gin.Context) {
	h.toggle(c, true)
}

func (h *Handler) Disable(c *gin.Context) {
	h.toggle(c, false)
}

func (h *Handler) toggle(c *gin.Context, enabled bool) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "PreferenceHandler.Toggle")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	ch, ok := parseChannel(c)
	if !ok {
		return
	}

	if err := h.useCase.Update(ctx, userID, ch, enabled); err != nil {
		if errors.Is(err, ErrInvalidChannel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.serverError(c, userID, "toggle preference", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "channel": ch, "enabled": enabled})
}

func (h *Handler) DisableAll(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "PreferenceHandler.DisableAll")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.useCase.DisableAll(ctx, userID); err != nil {
		h.serverError(c, userID, "disable all preferences", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "disabled": true})
}

func (h *Handler) InitializeDefaults(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "PreferenceHandler.InitializeDefaults")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.useCase.InitializeDefaults(ctx, userID); err != nil {
		h.serverError(c, userID, "initialize default preferences", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": userID, "initialized": true})
}

func (h *Handler) DeleteAll(c *gin.Context) {
	ctx, span := tracing.Tracer.Start(c.Request.Context(), "PreferenceHandler.DeleteAll")
	defer span.End()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.useCase.DeleteAll(ctx, userID); err != nil {
		h.serverError(c, userID, "delete preferences", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) serverError(c *gin.Context, userID int64, op string, err error) {
	logger.L().Error("Preference operation failed",
		zap.String("operation", op),
		zap.Int64("userID", userID),
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

func parseChannel(c *gin.Context) (domain.Channel, bool) {
	ch := domain.Channel(c.Param("channel"))
	if !ch.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel: " + c.Param("channel")})
		return "", false
	}
	return ch, true
}
