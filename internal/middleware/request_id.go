package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RequestID tags every request with an ID and echoes it in the
// response so log lines can be matched to client reports.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(requestIDKey, id)
		ctx.Header("X-Request-ID", id)
		ctx.Next()
	}
}

// RequestIDFromContext returns the request ID, empty when absent.
func RequestIDFromContext(ctx *gin.Context) string {
	return ctx.GetString(requestIDKey)
}
