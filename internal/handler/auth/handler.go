package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rmaulana/rh-tracker-api/internal/handler"
	"github.com/rmaulana/rh-tracker-api/internal/middleware"
	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/service/auth"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

type Handler struct {
	service auth.Service
	logger  *logger.Logger
}

func NewHandler(service auth.Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)
	protected.GET("/auth/session", h.Session)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.SuccessMessage(c, http.StatusCreated, "user registered", user)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, token)
}

func (h *Handler) Session(c *gin.Context) {
	user, err := h.service.Session(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, user)
}
