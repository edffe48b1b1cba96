package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// NewRouter wires the Gin engine with the item, report and user routes.
func NewRouter(items *HTTPHandler, users *UserHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", items.HealthCheck)

	r.GET("/items", items.ListItems)
	r.POST("/items", items.CreateItem)
	r.GET("/items/:id", items.GetItem)
	r.PUT("/items/:id", items.UpdateItem)
	r.DELETE("/items/:id", items.DeleteItem)
	r.GET("/items/:id/history", items.ItemHistory)
	r.GET("/reports/expiry", items.ExpiryReport)

	if users != nil {
		api := r.Group("/api")
		api.GET("/users", users.ListUsers)
		api.POST("/verify-password", users.VerifyPassword)
		api.POST("/update-user", users.UpdateUser)
		api.POST("/login", users.Login)
		api.POST("/register", users.Register)
	}

	return r
}

// requestIDMiddleware reuses the caller's X-Request-ID or mints one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")))
	}
}
