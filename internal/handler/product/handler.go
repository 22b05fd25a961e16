package product

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rmaulana/rh-tracker-api/internal/handler"
	"github.com/rmaulana/rh-tracker-api/internal/middleware"
	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/service/product"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

type Handler struct {
	service product.Service
	logger  *logger.Logger
}

func NewHandler(service product.Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/products", h.Create)
	protected.GET("/products", h.List)
	protected.GET("/products/statistics", h.Statistics)
	protected.GET("/products/:id", h.Get)
	protected.PUT("/products/:id", h.Update)
	protected.DELETE("/products/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.UserUUID(c)
	if !ok {
		handler.BadRequest(c, "invalid user")
		return
	}

	var req model.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.SuccessMessage(c, http.StatusCreated, "product created", created)
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.UserUUID(c)
	if !ok {
		handler.BadRequest(c, "invalid user")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filters := &model.ProductFilters{
		UserID: userID,
		Status: model.ProductStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}

	products, pagination, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, gin.H{
		"products":   products,
		"pagination": pagination,
	})
}

func (h *Handler) Statistics(c *gin.Context) {
	userID, ok := middleware.UserUUID(c)
	if !ok {
		handler.BadRequest(c, "invalid user")
		return
	}

	stats, err := h.service.Statistics(c.Request.Context(), userID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, stats)
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := middleware.UserUUID(c)
	if !ok {
		handler.BadRequest(c, "invalid user")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.BadRequest(c, "invalid product id")
		return
	}

	p, err := h.service.Get(c.Request.Context(), id, userID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, p)
}

func (h *Handler) Update(c *gin.Context) {
	userID, ok := middleware.UserUUID(c)
	if !ok {
		handler.BadRequest(c, "invalid user")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.BadRequest(c, "invalid product id")
		return
	}

	var req model.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, userID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.SuccessMessage(c, http.StatusOK, "product updated", updated)
}

func (h *Handler) Delete(c *gin.Context) {
	userID, ok := middleware.UserUUID(c)
	if !ok {
		handler.BadRequest(c, "invalid user")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.BadRequest(c, "invalid product id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		handler.Error(c, err)
		return
	}
	handler.SuccessMessage(c, http.StatusOK, "product deleted", nil)
}
