package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rmaulana/rh-tracker-api/internal/handler"
	"github.com/rmaulana/rh-tracker-api/internal/middleware"
	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/service/notification"
	"github.com/rmaulana/rh-tracker-api/internal/service/sweep"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

type Handler struct {
	notifier notification.Service
	sweeper  *sweep.Service
	logger   *logger.Logger
}

func NewHandler(notifier notification.Service, sweeper *sweep.Service, log *logger.Logger) *Handler {
	return &Handler{notifier: notifier, sweeper: sweeper, logger: log}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/notifications/check", h.Check)
	protected.POST("/notifications/send", h.Send)
}

// Check sweeps only the caller's products. Same per-item rules as the
// full-fleet sweep, so repeated polling stays idempotent within a day.
func (h *Handler) Check(c *gin.Context) {
	userID, ok := middleware.UserUUID(c)
	if !ok {
		handler.BadRequest(c, "invalid user")
		return
	}

	report, err := h.sweeper.RunForOwner(c.Request.Context(), userID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, report)
}

// Send triggers a manual notification for one product to all admin and
// staff users.
func (h *Handler) Send(c *gin.Context) {
	userID, ok := middleware.UserUUID(c)
	if !ok {
		handler.BadRequest(c, "invalid user")
		return
	}

	var req model.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		handler.BadRequest(c, "invalid product id")
		return
	}

	typ := model.NotificationWarningRH
	if req.Type == "expired" {
		typ = model.NotificationExpiredRH
	}

	report, err := h.notifier.SendManual(c.Request.Context(), userID, productID, typ)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.SuccessMessage(c, http.StatusOK, "manual notification processed", report)
}
