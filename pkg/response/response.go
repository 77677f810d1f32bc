package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// Success writes a successful envelope with data and optional meta.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	})
}

// Message writes a successful envelope without payload.
func Message(ctx *gin.Context, status int, message string) {
	Success[any](ctx, status, nil, message, nil)
}

func build(ctx *gin.Context, status int, message string, err interface{}) APIResponse[any] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return APIResponse[any]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
}

// Error writes a failure envelope. err must be safe to show to clients.
func Error(ctx *gin.Context, status int, message string, err interface{}) {
	res := build(ctx, status, message, err)
	ctx.JSON(res.Status, res)
}

// Abort writes a failure envelope and stops the handler chain.
func Abort(ctx *gin.Context, status int, message string) {
	res := build(ctx, status, message, nil)
	ctx.AbortWithStatusJSON(res.Status, res)
}
