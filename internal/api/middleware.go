package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestLogger tags each request with an id (reusing the caller's X-Request-ID
// when present) and logs method, path, status and latency.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := "INFO"
		if status >= 500 {
			level = "ERROR"
		}
		log.Printf("[%s] %s %s %d %s request=%s", level, c.Request.Method, c.Request.URL.Path, status, time.Since(start), id)
	}
}

// RequestID returns the id assigned by RequestLogger, or "-" outside it.
func RequestID(c *gin.Context) string {
	if v := c.GetString(requestIDKey); v != "" {
		return v
	}
	return "-"
}

// NewRouter builds the gin engine with recovery, request logging and the API routes.
func NewRouter(mode string, h *Handler) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.RegisterRoutes(r)
	return r
}
