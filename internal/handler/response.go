// Package handler holds the HTTP layer: one sub-package per resource plus
// the shared response envelope defined here.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/rmaulana/rh-tracker-api/pkg/errors"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, code int, data interface{}) {
	c.JSON(code, Response{Status: "success", Data: data})
}

func SuccessMessage(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{Status: "success", Message: message, Data: data})
}

// Error renders err through the AppError mapping, defaulting to 500 for
// unclassified errors.
func Error(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus(), Response{Status: "error", Message: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{Status: "error", Message: "internal server error"})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Status: "error", Message: message})
}
