package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestRecorder starts a request measurement and returns its completion
type RequestRecorder interface {
	Begin() func(method, route string, status int, elapsed time.Duration)
}

// Metrics records request counts and latency by route template, so ids in
// paths never become label values
func Metrics(rec RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		done := rec.Begin()
		c.Next()
		done(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
