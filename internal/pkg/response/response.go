// Package response writes the JSON envelope every handler answers with.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/logger"
)

// OK answers 200 with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": data,
	})
}

// Created answers 201 with data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{
		"code": 201,
		"msg":  "created",
		"data": data,
	})
}

// Page answers 200 with a paginated list.
func Page(c *gin.Context, items any, total int64, page, size int) {
	OK(c, gin.H{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// Message answers 200 with a message and no data.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  msg,
	})
}

// Error maps err through apperr and aborts the request. Internal causes are
// logged and never shown to the client.
func Error(c *gin.Context, err error) {
	appErr := apperr.From(err)
	status := appErr.HTTPStatus()

	if status >= http.StatusInternalServerError {
		logger.With(
			"error_type", appErr.Type,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"user_id", c.GetUint("userId"),
		).Error(appErr.Message, "cause", appErr.Cause)
	}

	body := gin.H{
		"code": status,
		"msg":  appErr.Message,
	}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

// BindError answers a failed ShouldBind call. Validator failures carry field
// messages; malformed bodies become a plain validation error.
func BindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		Error(c, err)
		return
	}
	Error(c, apperr.Validation("invalid request body"))
}
