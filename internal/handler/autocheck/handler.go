package autocheck

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rmaulana/rh-tracker-api/internal/handler"
	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
	"github.com/rmaulana/rh-tracker-api/internal/rh"
	"github.com/rmaulana/rh-tracker-api/internal/service/sweep"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

// Handler exposes the machine-facing sweep trigger. It sits outside the
// user auth stack and is gated by a shared secret instead.
type Handler struct {
	sweeper          *sweep.Service
	productRepo      repository.ProductRepository
	notificationRepo repository.NotificationRepository
	cal              rh.Calendar
	secret           string
	logger           *logger.Logger
}

func NewHandler(
	sweeper *sweep.Service,
	productRepo repository.ProductRepository,
	notificationRepo repository.NotificationRepository,
	cal rh.Calendar,
	secret string,
	log *logger.Logger,
) *Handler {
	return &Handler{
		sweeper:          sweeper,
		productRepo:      productRepo,
		notificationRepo: notificationRepo,
		cal:              cal,
		secret:           secret,
		logger:           log,
	}
}

func (h *Handler) RegisterRoutes(public *gin.RouterGroup) {
	public.POST("/auto-check", h.Run)
	public.GET("/auto-check", h.Stats)
}

// Run executes a full-fleet sweep. The scheduler authenticates with the
// shared secret in the request body.
func (h *Handler) Run(c *gin.Context) {
	var req model.AutoCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !h.secretMatches(req.Secret) {
		c.JSON(http.StatusUnauthorized, handler.Response{Status: "error", Message: "invalid secret"})
		return
	}

	started := time.Now()
	report, err := h.sweeper.RunFull(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	h.logger.Info("auto-check sweep finished",
		"status_updated", report.StatusUpdated,
		"notifications", report.TotalNotifications,
		"errors", len(report.Errors),
		"duration", time.Since(started).String(),
	)
	handler.SuccessMessage(c, http.StatusOK, "auto-check completed", report)
}

// Stats reports current fleet counts and today's sent notifications, for
// scheduler health checks.
func (h *Handler) Stats(c *gin.Context) {
	if !h.secretMatches(c.Query("secret")) {
		c.JSON(http.StatusUnauthorized, handler.Response{Status: "error", Message: "invalid secret"})
		return
	}

	ctx := c.Request.Context()
	warning, err := h.productRepo.CountByStatus(ctx, model.ProductStatusWarning)
	if err != nil {
		handler.Error(c, err)
		return
	}
	expired, err := h.productRepo.CountByStatus(ctx, model.ProductStatusExpired)
	if err != nil {
		handler.Error(c, err)
		return
	}
	sentToday, err := h.notificationRepo.CountSentSince(ctx, h.cal.StartOfDay(time.Now()))
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.Success(c, http.StatusOK, gin.H{
		"warning_products": warning,
		"expired_products": expired,
		"sent_today":       sentToday,
		"checked_at":       time.Now().In(h.cal.Location()).Format(time.RFC3339),
	})
}

func (h *Handler) secretMatches(candidate string) bool {
	if h.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(h.secret)) == 1
}
