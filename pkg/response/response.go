package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxRequestID is the gin context key holding the request ID.
const CtxRequestID = "request_id"

// SuccessResponse is the standard success envelope.
// Warnings list read failures that left part of Data stale or empty.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	Warnings  []Warning   `json:"warnings,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// Warning describes a degraded part of a successful response.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: now(),
	})
}

// Partial sends a 200 response whose data is incomplete. Each non-nil
// error becomes a warning; AppErrors keep their code and message.
func Partial(c *gin.Context, data interface{}, errs ...error) {
	var warnings []Warning
	for _, err := range errs {
		if err == nil {
			continue
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			warnings = append(warnings, Warning{Code: appErr.Code, Message: appErr.Message})
			continue
		}
		warnings = append(warnings, Warning{Code: "SYS_000", Message: "Data may be out of date"})
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		Warnings:  warnings,
		RequestID: getRequestID(c),
		Timestamp: now(),
	})
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: now(),
	})
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			ErrorCode: appErr.Code,
			Message:   appErr.Message,
			RequestID: getRequestID(c),
			Timestamp: now(),
		})
		return
	}

	// Unknown error -> 500
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode: "SYS_000",
		Message:   "Internal server error",
		RequestID: getRequestID(c),
		Timestamp: now(),
	})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// getRequestID retrieves request ID from context, or generates one.
func getRequestID(c *gin.Context) string {
	if id, exists := c.Get(CtxRequestID); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
