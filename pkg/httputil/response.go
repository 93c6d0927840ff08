package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bloodsight/bloodsight-api/pkg/errors"
)

// Response is the wire envelope shared by all endpoints: a success
// flag plus either flat payload fields or an error string.
type Response map[string]interface{}

// OK sends a success response with the given extra fields merged in.
func OK(c *gin.Context, fields gin.H) {
	respond(c, http.StatusOK, fields)
}

// Created sends a 201 success response.
func Created(c *gin.Context, fields gin.H) {
	respond(c, http.StatusCreated, fields)
}

func respond(c *gin.Context, status int, fields gin.H) {
	body := Response{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail sends an error response with an explicit status.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		"success": false,
		"error":   message,
	})
}

// FailErr maps an application error to an HTTP status and responds.
func FailErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
		switch appErr.Code {
		case errors.ErrNotFound:
			status = http.StatusNotFound
		case errors.ErrBadRequest:
			status = http.StatusBadRequest
		case errors.ErrUnauthorized:
			status = http.StatusUnauthorized
		case errors.ErrForbidden:
			status = http.StatusForbidden
		case errors.ErrConflict:
			status = http.StatusConflict
		case errors.ErrPayloadTooLarge:
			status = http.StatusRequestEntityTooLarge
		}
	}

	Fail(c, status, message)
}
